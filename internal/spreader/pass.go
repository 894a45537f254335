package spreader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spreader/internal/binding"
	"spreader/internal/catalog"
	"spreader/internal/cfgerr"
	"spreader/internal/field"
	"spreader/internal/logger"
	"spreader/internal/resolve"
)

// Phase is the lifecycle of a whole pass.
type Phase int

const (
	PhaseResolving Phase = iota
	PhaseAssembling
	PhaseAssembled
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseResolving:
		return "resolving"
	case PhaseAssembling:
		return "assembling"
	case PhaseAssembled:
		return "assembled"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stage names where a failed pass stopped.
type Stage string

const (
	StageNone     Stage = ""
	StageFields   Stage = "fields"
	StageBindings Stage = "bindings"
	StageAssembly Stage = "assembly"
)

// Observer sees field outcomes and the end of every pass.
type Observer interface {
	resolve.Observer
	PassFinished(phase Phase, stage Stage, elapsed time.Duration)
}

// Options configure a pass.
type Options struct {
	Variant      Variant
	Params       binding.Params
	WalletTokens []string
	Observer     Observer
	// PassID fixes the pass id; empty generates one.
	PassID string
}

// Outcome is the result of an assembled pass.
type Outcome struct {
	PassID    string
	Binding   binding.StrategyBinding
	Bindings  binding.Bindings
	Values    *field.ResolvedSet
	Exchanges []string
	Record    binding.Record
}

// Pass drives one resolution from raw input to a strategy binding.
type Pass struct {
	variant   Variant
	session   *resolve.Session
	resolver  *binding.Resolver
	assembler *binding.Assembler
	observer  Observer
	started   time.Time

	phase  Phase
	failed Stage
	err    error
}

func NewPass(reg *field.Registry, factory catalog.Factory, opts Options) *Pass {
	var sessOpts []resolve.Option
	if opts.Observer != nil {
		sessOpts = append(sessOpts, resolve.WithObserver(opts.Observer))
	}
	if opts.PassID != "" {
		sessOpts = append(sessOpts, resolve.WithID(opts.PassID))
	}
	variant := opts.Variant
	if variant == "" {
		variant = TwoMarket
	}
	return &Pass{
		variant:  variant,
		session:  resolve.NewSession(reg, sessOpts...),
		resolver: binding.NewResolver(factory, opts.WalletTokens),
		assembler: binding.NewAssembler(reg.Required(), binding.Keys{
			Strategy:    KeyStrategy,
			OrderAmount: KeyOrderAmount,
			OrderSpread: KeyOrderSpread,
		}, opts.Params),
		observer: opts.Observer,
		started:  time.Now(),
		phase:    PhaseResolving,
	}
}

func (p *Pass) ID() string                { return p.session.ID() }
func (p *Pass) Session() *resolve.Session { return p.session }
func (p *Pass) Phase() Phase              { return p.phase }
func (p *Pass) FailedStage() Stage        { return p.failed }
func (p *Pass) Err() error                { return p.err }

// Run resolves interactively and then finishes the pass.
func (p *Pass) Run(ctx context.Context, prompter resolve.Prompter) (Outcome, error) {
	if err := p.session.Run(ctx, prompter); err != nil {
		return Outcome{}, p.fail(StageFields, err)
	}
	return p.Finish()
}

// Apply resolves inputs in batch mode and then finishes the pass. The first
// rejected input fails the pass.
func (p *Pass) Apply(inputs []resolve.Input) (Outcome, error) {
	if err := p.session.Apply(inputs); err != nil {
		return Outcome{}, p.fail(StageFields, err)
	}
	return p.Finish()
}

// Finish resolves market bindings and assembles the strategy binding from
// the fields resolved so far. A finished pass cannot be finished again.
func (p *Pass) Finish() (Outcome, error) {
	if p.phase != PhaseResolving {
		return Outcome{}, fmt.Errorf("pass %s already %s", p.ID(), p.phase)
	}
	p.phase = PhaseAssembling
	res := p.session.Result()

	if err := p.assembler.CheckComplete(res.Values); err != nil {
		return Outcome{}, p.fail(StageAssembly, err)
	}
	bindings, err := p.resolveBindings(res)
	if err != nil {
		return Outcome{}, p.fail(StageBindings, err)
	}
	sb, err := p.assembler.Assemble(res.Values, bindings, res.Exchanges)
	if err != nil {
		return Outcome{}, p.fail(StageAssembly, err)
	}

	p.phase = PhaseAssembled
	p.finished()
	logger.Infof("pass %s assembled: %s", p.ID(), summary(sb))
	return Outcome{
		PassID:    res.PassID,
		Binding:   sb,
		Bindings:  bindings,
		Values:    res.Values,
		Exchanges: res.Exchanges,
		Record:    binding.NewRecord(res.PassID, res.Values, sb),
	}, nil
}

func (p *Pass) resolveBindings(res resolve.Result) (binding.Bindings, error) {
	var b binding.Bindings
	var err error
	if b.Maker, err = p.resolveRole(res, KeyMakerMarket, KeyMakerPair); err != nil {
		return binding.Bindings{}, err
	}
	if b.Ref, err = p.resolveRole(res, KeyRefMarket, KeyRefPair); err != nil {
		return binding.Bindings{}, err
	}
	if p.variant == ThreeMarket {
		if b.Hedger, err = p.resolveRole(res, KeyHedgeMarket, KeyHedgePair); err != nil {
			return binding.Bindings{}, err
		}
	}
	b.Assets = p.resolver.RequiredAssets(b.Maker)
	return b, nil
}

func (p *Pass) resolveRole(res resolve.Result, marketKey, pairKey field.Key) (binding.MarketTradingPair, error) {
	market, _ := res.Values.Lookup(marketKey)
	pair, _ := res.Values.Lookup(pairKey)
	mtp, err := p.resolver.Resolve(market.String(), pair.String(), res.Exchanges)
	if err != nil {
		return binding.MarketTradingPair{}, stampKey(err, pairKey)
	}
	return mtp, nil
}

// FailedError reports where a pass stopped. Its message is the cause's.
type FailedError struct {
	PassID string
	Stage  Stage
	Err    error
}

func (e *FailedError) Error() string { return e.Err.Error() }
func (e *FailedError) Unwrap() error { return e.Err }

func (p *Pass) fail(stage Stage, err error) error {
	p.phase = PhaseFailed
	p.failed = stage
	p.err = &FailedError{PassID: p.ID(), Stage: stage, Err: err}
	p.finished()
	logger.Warnf("pass %s failed at %s: %v", p.ID(), stage, err)
	return p.err
}

func (p *Pass) finished() {
	if p.observer != nil {
		p.observer.PassFinished(p.phase, p.failed, time.Since(p.started))
	}
}

func stampKey(err error, key field.Key) error {
	var ce *cfgerr.Error
	if errors.As(err, &ce) && ce.Key == "" {
		cp := *ce
		cp.Key = string(key)
		return &cp
	}
	return err
}

func summary(sb binding.StrategyBinding) string {
	pairs := sb.MarketPairs()
	if len(pairs) == 0 {
		return "<empty>"
	}
	out := fmt.Sprintf("maker=%s ref=%s", pairs[0].Maker, pairs[0].Ref)
	if pairs[0].HasHedger() {
		out += fmt.Sprintf(" hedger=%s", pairs[0].Hedger)
	}
	return out + fmt.Sprintf(" amount=%s spread=%s", sb.OrderAmount(), sb.OrderSpread())
}

// Replay runs a stored record through a batch pass.
func Replay(reg *field.Registry, factory catalog.Factory, opts Options, rec binding.Record) (Outcome, error) {
	inputs := make([]resolve.Input, 0, len(rec.Fields))
	for _, k := range rec.FieldKeys() {
		key, err := ParseKey(k)
		if err != nil {
			return Outcome{}, err
		}
		inputs = append(inputs, resolve.Input{Key: key, Raw: rec.Fields[k]})
	}
	if opts.PassID == "" {
		opts.PassID = rec.PassID
	}
	return NewPass(reg, factory, opts).Apply(inputs)
}
