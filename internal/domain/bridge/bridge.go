package bridge

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/docbridge/internal/domain/correlator"
	"github.com/GriffinCanCode/docbridge/internal/domain/document"
	"github.com/GriffinCanCode/docbridge/internal/domain/picker"
	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
	"github.com/GriffinCanCode/docbridge/internal/shared/utils"
)

// Actions understood by Execute.
const (
	ActionSelectFolder  = "selectFolder"
	ActionSelectFile    = "selectFile"
	ActionOpenFolder    = "openFolder"
	ActionOpenFile      = "openFile"
	ActionReadFile      = "readFile"
	ActionSaveFile      = "saveFile"
	ActionWriteFile     = "writeFile"
	ActionWriteMedia    = "writeMedia"
	ActionOverwriteFile = "overwriteFile"
	ActionDeleteFile    = "deleteFile"
	ActionGetInfo       = "getInfo"
	ActionGetURI        = "getUri"
)

// Actions lists every supported action
func Actions() []string {
	return []string{
		ActionSelectFolder, ActionSelectFile, ActionOpenFolder, ActionOpenFile,
		ActionReadFile, ActionSaveFile, ActionWriteFile, ActionWriteMedia,
		ActionOverwriteFile, ActionDeleteFile, ActionGetInfo, ActionGetURI,
	}
}

// Config tunes the bridge
type Config struct {
	Workers      int
	QueueSize    int
	DeliveryBuf  int
	MaxReadBytes int64
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		Workers:      4,
		QueueSize:    256,
		DeliveryBuf:  256,
		MaxReadBytes: 64 << 20,
	}
}

// Dependencies are the collaborators of a Bridge. Documents, Index and Launcher are required.
type Dependencies struct {
	Documents  *document.Router
	Index      ContentIndex
	Launcher   picker.Launcher
	Grants     Grants
	Correlator *correlator.Correlator
	Logger     *zap.Logger
	Metrics    Recorder
}

type handler func(ctx context.Context, p utils.Params, cb Callback) (map[string]interface{}, error)

// Bridge owns the correlator, the worker pool and the delivery goroutine for one host.
type Bridge struct {
	cfg      Config
	docs     *document.Router
	index    ContentIndex
	launcher picker.Launcher
	grants   Grants
	corr     *correlator.Correlator
	pool     *Pool
	out      *Deliverer
	logger   *zap.Logger
	metrics  Recorder
	handlers map[string]handler
}

// New wires a bridge and starts its goroutines
func New(cfg Config, deps Dependencies) (*Bridge, error) {
	if deps.Documents == nil || deps.Index == nil || deps.Launcher == nil {
		return nil, fmt.Errorf("bridge: documents, index and launcher are required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.MaxReadBytes <= 0 {
		cfg.MaxReadBytes = DefaultConfig().MaxReadBytes
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopRecorder{}
	}
	grants := deps.Grants
	if grants == nil {
		grants = nopGrants{}
	}
	corr := deps.Correlator
	if corr == nil {
		corr = correlator.New(
			correlator.WithLogger(logger),
			correlator.WithCollisionHook(func(correlator.Token) { metrics.IncTokenCollisions() }),
		)
	}

	b := &Bridge{
		cfg:      cfg,
		docs:     deps.Documents,
		index:    deps.Index,
		launcher: deps.Launcher,
		grants:   grants,
		corr:     corr,
		pool:     NewPool(cfg.Workers, cfg.QueueSize, logger),
		out:      NewDeliverer(cfg.DeliveryBuf, logger),
		logger:   logger.Named("bridge"),
		metrics:  metrics,
	}
	b.handlers = map[string]handler{
		ActionSelectFolder:  b.selectFolder,
		ActionSelectFile:    b.selectFile,
		ActionOpenFolder:    b.openFolder,
		ActionOpenFile:      b.openFile,
		ActionReadFile:      b.readFile,
		ActionSaveFile:      b.saveFile,
		ActionWriteFile:     b.writeFile,
		ActionWriteMedia:    b.writeMedia,
		ActionOverwriteFile: b.overwriteFile,
		ActionDeleteFile:    b.deleteFile,
		ActionGetInfo:       b.getInfo,
		ActionGetURI:        b.getURI,
	}
	return b, nil
}

// Supports reports whether action is known
func (b *Bridge) Supports(action string) bool {
	_, ok := b.handlers[action]
	return ok
}

// Execute runs action on the worker pool. cb receives exactly one outcome. Interactive
// actions complete later, once the picker result arrives through OnPickerResult.
func (b *Bridge) Execute(ctx context.Context, action string, params map[string]interface{}, cb Callback) {
	cb = guard(cb)

	h, ok := b.handlers[action]
	if !ok {
		b.fail(action, cb, failure.New(failure.Validation, action, "unknown action %q", action))
		return
	}

	// the job outlives the caller's request for interactive actions
	jobCtx := context.WithoutCancel(ctx)
	start := time.Now()

	err := b.pool.Submit(ctx, Job{
		Name: action,
		Run: func() {
			payload, err := h(jobCtx, utils.Params(params), cb)
			switch {
			case err != nil:
				b.metrics.RecordOperation(action, "error", time.Since(start))
				b.fail(action, cb, err)
			case payload != nil:
				b.metrics.RecordOperation(action, "success", time.Since(start))
				b.out.Success(cb, payload)
			default:
				b.metrics.RecordOperation(action, "pending", time.Since(start))
			}
		},
		OnPanic: func(r interface{}, stack []byte) {
			b.metrics.RecordOperation(action, "panic", time.Since(start))
			b.failWithTrace(action, cb, fmt.Errorf("panic: %v", r), string(stack))
		},
	})
	if err != nil {
		b.fail(action, cb, failure.Wrap(failure.Unknown, action, err))
	}
}

// Call runs action and waits for its outcome.
func (b *Bridge) Call(ctx context.Context, action string, params map[string]interface{}) (map[string]interface{}, *failure.Failure) {
	cb := NewChanCallback()
	b.Execute(ctx, action, params, cb)

	select {
	case out := <-cb.Done():
		return out.Payload, out.Failure
	case <-ctx.Done():
		return nil, &failure.Failure{Kind: failure.Cancelled, Message: ctx.Err().Error()}
	}
}

// OnPickerResult implements picker.ResultHandler. The result is processed on the pool.
func (b *Bridge) OnPickerResult(res picker.Result) {
	err := b.pool.Submit(context.Background(), Job{
		Name: "pickerResult",
		Run:  func() { b.completePicker(context.Background(), res) },
		OnPanic: func(r interface{}, _ []byte) {
			b.logger.Error("picker result handling panicked", zap.Int64("request_code", res.RequestCode), zap.Any("panic", r))
		},
	})
	if err != nil {
		b.logger.Warn("picker result dropped", zap.Int64("request_code", res.RequestCode), zap.Error(err))
	}
}

// Outstanding is the number of interactive requests awaiting a result
func (b *Bridge) Outstanding() int { return b.corr.Outstanding() }

// Close drains the pool, then the deliverer
func (b *Bridge) Close() {
	b.pool.Close()
	b.out.Close()
}

func (b *Bridge) fail(action string, cb Callback, err error) {
	b.failWithTrace(action, cb, err, "")
}

func (b *Bridge) failWithTrace(action string, cb Callback, err error, trace string) {
	f := failure.FromError(err)
	if trace != "" {
		f = &failure.Failure{Kind: f.Kind, Message: f.Message, Trace: trace}
	}

	fields := []zap.Field{
		zap.String("action", action),
		zap.Stringer("kind", f.Kind),
		zap.String("callback", cb.ID()),
		zap.Error(err),
	}
	var fe *failure.Error
	if asFailure(err, &fe) {
		if fe.Op != "" {
			fields = append(fields, zap.String("op", fe.Op))
		}
		if fe.Path != "" {
			fields = append(fields, zap.String("uri", fe.Path))
		}
	}
	b.logger.Warn("operation failed", fields...)
	b.metrics.RecordFailure(action, f.Kind)
	b.out.Fail(cb, f)
}

// completion adapts a callback to the correlator's completion handle.
type completion struct {
	b    *Bridge
	kind correlator.Kind
	cb   Callback
}

func (c completion) ID() string { return c.cb.ID() }

// Reject fails a displaced request and drops any save payload it left behind.
func (c completion) Reject(err error) {
	if c.kind == correlator.SaveFile {
		c.b.corr.Discard(c.cb.ID())
	}
	c.b.fail(c.kind.String(), c.cb, err)
}
