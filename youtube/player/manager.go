// Package player holds the memoized deobfuscation state derived from one
// player code version.
package player

import (
	"context"
	"strings"
	"sync"

	"github.com/patrickmn/go-cache"

	"github.com/ytget/ytplayer/errs"
	"github.com/ytget/ytplayer/internal/logger"
	"github.com/ytget/ytplayer/internal/metrics"
	"github.com/ytget/ytplayer/javascript"
	"github.com/ytget/ytplayer/youtube/cipher"
)

// Artifact names used in logs and metrics.
const (
	ArtifactTimestamp  = "signature_timestamp"
	ArtifactSignature  = "signature"
	ArtifactThrottling = "throttling"

	throttlingCacheName = "throttling_parameter"
)

// CodeSource supplies player code. *playercode.Fetcher implements it.
type CodeSource interface {
	PlayerCode(ctx context.Context, hintID string) (string, error)
	Reset()
}

// memo remembers the outcome of one extraction, success or failure.
type memo[T any] struct {
	set   bool
	value T
	err   error
}

type throttlingFunction struct {
	name string
	code string
}

// Manager exposes the signature timestamp, signature deobfuscation and
// throttling parameter deobfuscation. Each artifact is extracted lazily on
// first use; extraction failures are remembered and returned again until
// ClearAllCaches. Player code fetch failures are not remembered. The
// Manager is safe for concurrent use.
type Manager struct {
	source  CodeSource
	runner  javascript.Runner
	log     *logger.ComponentLogger
	metrics *metrics.Metrics

	mu         sync.Mutex
	generation uint64 // bumped by ClearAllCaches
	timestamp  memo[int]
	signature  memo[string]
	throttling memo[throttlingFunction]

	params *cache.Cache
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l.WithComponent(logger.ComponentPlayer)
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// NewManager creates a Manager reading player code from source and running
// extracted functions with runner.
func NewManager(source CodeSource, runner javascript.Runner, opts ...Option) *Manager {
	m := &Manager{
		source: source,
		runner: runner,
		log:    logger.WithComponent(logger.ComponentPlayer),
		params: cache.New(cache.NoExpiration, 0),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// load returns the memoized value of slot or runs extract against the
// player code. Extraction happens outside the lock; the outcome of a
// finished extraction replaces whatever a concurrent caller stored, unless
// the caches were cleared while it ran.
func load[T any](ctx context.Context, m *Manager, slot *memo[T], artifact, hintID string, extract func(code string) (T, error)) (T, error) {
	m.mu.Lock()
	cur, gen := *slot, m.generation
	m.mu.Unlock()
	m.metrics.CacheLookup(artifact, cur.set)
	if cur.set {
		return cur.value, cur.err
	}

	var zero T
	code, err := m.source.PlayerCode(ctx, hintID)
	if err != nil {
		return zero, err
	}

	value, err := extract(code)
	if err != nil {
		m.metrics.ExtractionFailed(artifact)
		m.log.Warn("extraction failed", map[string]interface{}{"artifact": artifact, "error": err.Error()})
		if !errs.IsExtractionFailure(err) {
			return zero, err
		}
	} else {
		m.log.Debug("extracted", map[string]interface{}{"artifact": artifact})
	}

	m.mu.Lock()
	if m.generation == gen {
		*slot = memo[T]{set: true, value: value, err: err}
	}
	m.mu.Unlock()
	return value, err
}

// SignatureTimestamp returns the signature timestamp of the player code.
func (m *Manager) SignatureTimestamp(ctx context.Context, hintID string) (int, error) {
	return load(ctx, m, &m.timestamp, ArtifactTimestamp, hintID, cipher.SignatureTimestamp)
}

// DeobfuscateSignature runs the signature cipher on obfuscated.
func (m *Manager) DeobfuscateSignature(ctx context.Context, hintID, obfuscated string) (string, error) {
	code, err := load(ctx, m, &m.signature, ArtifactSignature, hintID, func(playerCode string) (string, error) {
		return cipher.SignatureDeobfuscationCode(playerCode, m.runner)
	})
	if err != nil {
		return "", err
	}
	return m.runner.Run(code, cipher.DeobfuscateFunctionName, obfuscated)
}

// URLWithThrottlingParameterDeobfuscated replaces the n parameter of
// streamingURL with its deobfuscated value. URLs without the parameter are
// returned unchanged and do not touch the player code.
func (m *Manager) URLWithThrottlingParameterDeobfuscated(ctx context.Context, hintID, streamingURL string) (string, error) {
	obfuscated, ok := cipher.ThrottlingParameterFromStreamingURL(streamingURL)
	if !ok {
		return streamingURL, nil
	}

	if v, hit := m.params.Get(obfuscated); hit {
		m.metrics.CacheLookup(throttlingCacheName, true)
		return replaceThrottlingParameter(streamingURL, obfuscated, v.(string)), nil
	}
	m.metrics.CacheLookup(throttlingCacheName, false)
	m.mu.Lock()
	gen := m.generation
	m.mu.Unlock()

	fn, err := load(ctx, m, &m.throttling, ArtifactThrottling, hintID, func(playerCode string) (throttlingFunction, error) {
		name, err := cipher.ThrottlingFunctionName(playerCode)
		if err != nil {
			return throttlingFunction{}, err
		}
		code, err := cipher.ThrottlingFunction(playerCode, name, m.runner)
		if err != nil {
			return throttlingFunction{}, err
		}
		return throttlingFunction{name: name, code: code}, nil
	})
	if err != nil {
		return "", err
	}

	deobfuscated, err := m.runner.Run(fn.code, fn.name, obfuscated)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	if m.generation == gen {
		m.params.Set(obfuscated, deobfuscated, cache.NoExpiration)
	}
	m.mu.Unlock()
	return replaceThrottlingParameter(streamingURL, obfuscated, deobfuscated), nil
}

func replaceThrottlingParameter(streamingURL, obfuscated, deobfuscated string) string {
	return strings.ReplaceAll(streamingURL, "n="+obfuscated, "n="+deobfuscated)
}

// ThrottlingParametersCacheSize returns the number of cached n values.
func (m *Manager) ThrottlingParametersCacheSize() int {
	return m.params.ItemCount()
}

// ClearThrottlingParametersCache forgets every cached n value.
func (m *Manager) ClearThrottlingParametersCache() {
	m.params.Flush()
}

// ClearAllCaches forgets every artifact, remembered failure, cached n value
// and the player code itself.
func (m *Manager) ClearAllCaches() {
	m.mu.Lock()
	m.generation++
	m.timestamp = memo[int]{}
	m.signature = memo[string]{}
	m.throttling = memo[throttlingFunction]{}
	m.params.Flush()
	m.mu.Unlock()
	m.source.Reset()
	m.log.Debug("caches cleared")
}
