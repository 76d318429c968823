package builtin

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stl-run/stl/registry"
	"github.com/stl-run/stl/value"
)

// RegisterEvents binds the reference debug/no-op event set under their
// historical dotted names: example.noop.NoOp, example.noop.Sleep,
// example.noop.LogParams, example.noop.LogEncodedParams. codecs is used
// only by LogEncodedParams to render message arguments in their declared
// wire encoding before logging them.
func RegisterEvents(reg *registry.Registry, log zerolog.Logger, codecs value.Codecs) error {
	events := map[string]registry.EventFunc{
		"example.noop.NoOp":  noOp,
		"example.noop.Sleep": sleep,
		"example.noop.LogParams": func(args []value.Value, refs []*value.Value, source, target registry.RoleContext) (bool, error) {
			return logParams(log, args)
		},
		"example.noop.LogEncodedParams": func(args []value.Value, refs []*value.Value, source, target registry.RoleContext) (bool, error) {
			return logEncodedParams(log, codecs, args)
		},
	}
	for ref, fn := range events {
		if err := reg.RegisterEvent(ref, fn); err != nil {
			return err
		}
	}
	return nil
}

// noOp does nothing and always succeeds, on both the Fire and Wait side of
// the interaction, per example.noop.NoOp.
func noOp(args []value.Value, refs []*value.Value, source, target registry.RoleContext) (bool, error) {
	return true, nil
}

// sleep blocks for its integer-seconds argument, per example.noop.Sleep.
func sleep(args []value.Value, refs []*value.Value, source, target registry.RoleContext) (bool, error) {
	if len(args) != 1 {
		return false, nil
	}
	time.Sleep(time.Duration(args[0].Int) * time.Second)
	return true, nil
}

// logParams dumps every argument at info level, per example.noop.LogParams.
func logParams(log zerolog.Logger, args []value.Value) (bool, error) {
	ev := log.Info()
	for i, a := range args {
		ev = ev.Str(fmt.Sprintf("arg%d", i), a.String())
	}
	ev.Msg("LogParams")
	return true, nil
}

// logEncodedParams encodes each message argument in its declared wire
// encoding and logs the result, per example.noop.LogEncodedParams.
func logEncodedParams(log zerolog.Logger, codecs value.Codecs, args []value.Value) (bool, error) {
	for i, a := range args {
		if a.Kind != value.KMessage {
			continue
		}
		enc, err := value.Encode(codecs, a.Message)
		if err != nil {
			return false, err
		}
		log.Info().Int("arg", i).Bytes("encoded", enc).Msg("LogEncodedParams")
	}
	return true, nil
}
