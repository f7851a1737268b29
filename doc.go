/*
Package protflow is a pose registry and reconciliation engine for multi-stage
protein design pipelines.

A pipeline keeps one table, the registry, with a row per pose (a structure or
sequence file). Each stage hands the current poses to an external tool through
a Runner, collects the tool's per-output results and merges them back, so that
after every stage the registry again holds exactly one row per live pose along
with every score produced so far.

# Concepts

  - Registry: pkg/poses.Poses, a table with the mandatory columns input_poses,
    poses and poses_description, plus a work directory and a storage format.
  - Runner: pkg/runner.Runner wraps one tool (RosettaScripts, RFdiffusion, a
    configured script). Runners run jobs through a ports.JobStarter and
    return a runner.Output.
  - Reconciliation: runner.Reconcile prefixes result columns with the stage
    prefix and joins them to the registry by stripping the index layers the
    tool appended to descriptions. A stage that produces N outputs per pose
    fans out into N rows.
  - Options: pkg/options merges a generic option string with per-pose
    overrides.

# Usage

	p, err := poses.New(poses.Glob("inputs", "*.pdb"), poses.WithWorkDir("run1"))
	if err != nil {
		log.Fatal(err)
	}

	pipe := protflow.New(p, protflow.WithLogger(logger))

	rosetta, err := rosettascripts.New("/opt/rosetta/bin/rosetta_scripts", "relax.xml",
		rosettascripts.WithNstruct(5),
	)
	if err != nil {
		log.Fatal(err)
	}

	if _, err := pipe.Run(ctx, rosetta, "relax", runner.RunOptions{}); err != nil {
		log.Fatal(err)
	}

# Observability

Stage and merge events are published through domain.LifecycleHooks. The
observability package provides hooks for slog and Prometheus; spans are
emitted through any OpenTelemetry TracerProvider passed with
WithTracerProvider.

# Checkpoints

With WithCheckpointStore, the registry is saved to a ports.TableStore under
the stage prefix after every successful stage. Restore loads it back.
*/
package protflow
