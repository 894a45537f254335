package resolve

import (
	"context"
	"fmt"

	"spreader/internal/cfgerr"
	"spreader/internal/field"
	"spreader/internal/logger"
)

// Prompter is the interactive input collaborator. Prompt blocks until the
// operator answers; Reject shows a rejection message before the re-prompt.
type Prompter interface {
	Prompt(ctx context.Context, key field.Key, text string) (string, error)
	Reject(key field.Key, msg string)
}

// Input is one raw (key, value) pair from a values file.
type Input struct {
	Key field.Key
	Raw string
}

// Run resolves every unresolved field interactively in declaration order.
// Rejected input is reported through p and the field is prompted again.
// Fields not prompted on new take their default. Run returns only when all
// fields are resolved, ctx is done or p fails.
func (s *Session) Run(ctx context.Context, p Prompter) error {
	for _, f := range s.reg.Fields() {
		if s.states[f.Key] == Resolved {
			continue
		}
		if !f.PromptOnNew {
			if !f.HasDefault() {
				continue
			}
			if _, err := s.Validate(f.Key, ""); err != nil {
				return err
			}
			continue
		}
		if err := s.ask(ctx, p, f.Key); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) ask(ctx context.Context, p Prompter, key field.Key) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, err := s.PromptFor(key)
		if err != nil {
			return err
		}
		raw, err := p.Prompt(ctx, key, text)
		if err != nil {
			return fmt.Errorf("prompt %s: %w", key, err)
		}
		_, verr := s.Validate(key, raw)
		if verr == nil {
			logger.LogExchange(s.id, string(key), text, raw, "")
			return nil
		}
		logger.LogExchange(s.id, string(key), text, raw, verr.Error())
		if cfgerr.KindOf(verr).Fatal() {
			return verr
		}
		p.Reject(key, verr.Error())
	}
}

// Apply resolves inputs without interaction. Inputs are validated in
// declaration order regardless of the order given; fields without input take
// their default. A field whose upstream is still unresolved is left unset for
// the completeness check to report. A repeated key and the first rejection
// abort the pass and are returned as is.
func (s *Session) Apply(inputs []Input) error {
	raw := make(map[field.Key]string, len(inputs))
	for _, in := range inputs {
		if !s.reg.Has(in.Key) {
			return cfgerr.Errorf(cfgerr.KindUnknownField, string(in.Key), "unknown config field: %s", in.Key)
		}
		if _, dup := raw[in.Key]; dup {
			return cfgerr.Errorf(cfgerr.KindDuplicateField, string(in.Key), "duplicate config field: %s", in.Key)
		}
		raw[in.Key] = in.Raw
	}
	for _, f := range s.reg.Fields() {
		if s.states[f.Key] == Resolved {
			continue
		}
		value, given := raw[f.Key]
		if !given && !f.HasDefault() {
			continue
		}
		if len(f.Requires) > 0 && s.checkUpstream(f) != nil {
			logger.Debugf("pass %s: %s skipped, upstream unresolved", s.id, f.Key)
			continue
		}
		if _, err := s.Validate(f.Key, value); err != nil {
			return err
		}
	}
	return nil
}
