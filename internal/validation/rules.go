package validation

// DefaultSchemas declares the validation contracts for the stock
// categories. Policies must resolve a dataset identifier and a model
// name; the environment must describe the task and action space the
// policy will be trained against.
func DefaultSchemas() []Schema {
	return []Schema{
		{
			Category: "env",
			Required: []string{
				"env.name",
				"env.task",
			},
		},
		{
			Category: "policy",
			Required: []string{
				"policy.name",
				"dataset_repo_id",
			},
			Compat: []CompatRule{
				{
					Name: "policy-env-action-space",
					Requires: []string{
						"env.action_dim",
						"env.state_dim",
					},
				},
				{
					Name: "policy-env-fps",
					Match: [][2]string{
						{"policy.fps", "fps"},
					},
				},
			},
		},
	}
}
