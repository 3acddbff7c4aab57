package actors

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/simulation"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// agent is the actor standing for one individual. A tick number asks it to
// think and it answers with the desired heading.
type agent struct {
	mu       sync.Mutex
	thinker  simulation.Thinker
	lastTick uint64
	logger   *zap.Logger
}

var _ actor.Actor = (*agent)(nil)

func newAgent(t simulation.Thinker, logger *zap.Logger) *agent {
	return &agent{thinker: t, logger: logger}
}

// bind points the actor at the individual currently using its id. A removed
// agent that is spawned again under the same id reuses the actor.
func (a *agent) bind(t simulation.Thinker) {
	a.mu.Lock()
	a.thinker = t
	a.mu.Unlock()
}

func (a *agent) think() mgl64.Vec3 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.thinker.Think()
}

func (a *agent) PreStart(ctx *actor.Context) error {
	a.logger.Debug("agent actor born", zap.String("id", ctx.ActorName()))
	return nil
}

func (a *agent) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		a.logger.Debug("agent actor started", zap.String("id", ctx.Self().Name()))

	case *wrapperspb.UInt64Value:
		a.lastTick = msg.GetValue()
		ctx.Response(headingToProto(a.think()))

	default:
		ctx.Unhandled()
	}
}

func (a *agent) PostStop(ctx *actor.Context) error {
	a.logger.Debug("agent actor stopped", zap.String("id", ctx.ActorName()), zap.Uint64("last_tick", a.lastTick))
	return nil
}

func headingToProto(h mgl64.Vec3) *structpb.ListValue {
	return &structpb.ListValue{Values: []*structpb.Value{
		structpb.NewNumberValue(h.X()),
		structpb.NewNumberValue(h.Y()),
		structpb.NewNumberValue(h.Z()),
	}}
}

func headingFromProto(l *structpb.ListValue) (mgl64.Vec3, bool) {
	values := l.GetValues()
	if len(values) != 3 {
		return mgl64.Vec3{}, false
	}
	var h mgl64.Vec3
	for i, v := range values {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return mgl64.Vec3{}, false
		}
		h[i] = n.NumberValue
	}
	return h, true
}
