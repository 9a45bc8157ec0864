package payment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrUnknownReference = errors.New("unknown payment reference")

// Handoff は決済ウィジェットに渡す値。Amount は最小単位。
type Handoff struct {
	Reference string
	Email     string
	Amount    int64
}

// Checkout はフロントがホスト型ウィジェットを開くのに使う。
type Checkout struct {
	Reference string `json:"reference"`
	Email     string `json:"email"`
	Amount    int64  `json:"amount"`
	PublicKey string `json:"public_key"`
}

type Verification struct {
	Reference string
	Paid      bool
	Amount    int64
	CheckedAt time.Time
}

// Gateway は外部決済の約束。
type Gateway interface {
	Initialize(ctx context.Context, h Handoff) (Checkout, error)
	Verify(ctx context.Context, reference string) (Verification, error)
}

// StubGateway は決済の検証をしない（常に支払い済みを返す）。
// 初期化したreferenceだけを受け付ける。
type StubGateway struct {
	publicKey string
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	handoff map[string]Handoff
}

// DI
func NewStubGateway(publicKey string, logger *zap.Logger) *StubGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubGateway{
		publicKey: publicKey,
		logger:    logger,
		now:       time.Now,
		handoff:   map[string]Handoff{},
	}
}

var _ Gateway = (*StubGateway)(nil)

func (g *StubGateway) Initialize(ctx context.Context, h Handoff) (Checkout, error) {
	if strings.TrimSpace(h.Reference) == "" {
		return Checkout{}, errors.New("reference is required")
	}
	if h.Amount <= 0 {
		return Checkout{}, errors.New("amount must be positive")
	}

	g.mu.Lock()
	g.handoff[h.Reference] = h
	g.mu.Unlock()

	g.logger.Info("payment initialized",
		zap.String("reference", h.Reference),
		zap.Int64("amount", h.Amount),
	)
	return Checkout{
		Reference: h.Reference,
		Email:     h.Email,
		Amount:    h.Amount,
		PublicKey: g.publicKey,
	}, nil
}

func (g *StubGateway) Verify(ctx context.Context, reference string) (Verification, error) {
	g.mu.Lock()
	h, ok := g.handoff[reference]
	g.mu.Unlock()
	if !ok {
		return Verification{}, ErrUnknownReference
	}

	g.logger.Warn("payment verification is stubbed", zap.String("reference", reference))
	return Verification{
		Reference: reference,
		Paid:      true,
		Amount:    h.Amount,
		CheckedAt: g.now(),
	}, nil
}
