/*
Package runner defines how pipeline stages run against a poses registry and how
their results are folded back into it.

A stage is executed by a Runner. The Runner submits one command per pose through a
ports.JobStarter, collects the artifacts the tool produced and returns them as an
Output: a raw result table with the mandatory "description" and "location" columns.
Output.ReturnPoses then reconciles those results with the registry.

# Reconciliation

Each result row carries a join key derived from its description by stripping the
runner's index layers. All result columns are prefixed with the stage prefix and
joined against the registry's poses_description. Every pose must find at least one
result and every result must find its pose, otherwise the merge fails with a
*domain.JoinError and the registry is left untouched.

# Usage

	out, err := runner.Execute(ctx, relax, p, "relax", runner.RunOptions{
		Options:     "-nstruct 5",
		PoseOptions: runner.FromColumn("relax_flags"),
	})
*/
package runner
