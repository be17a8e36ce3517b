package worker

import "go.uber.org/fx"

// Worker is the exported view of a registered background loop.
type Worker = worker

// Activate forces instantiation of every worker registered in the enclosing
// module scope. Provides are lazy; without an invoke the loops never start.
func Activate() fx.Option {
	return fx.Invoke(
		fx.Annotate(
			func(_ []Worker) {},
			fx.ParamTags(`group:"workers"`),
		),
	)
}
