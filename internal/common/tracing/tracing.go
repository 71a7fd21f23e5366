package tracing

import (
	"fmt"
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

// InitTracer 初始化 Jaeger tracer 并设为进程全局。
// sampler >= 1 全采样（const），否则按比例采样（probabilistic）。
func InitTracer(serviceName, agentHostPort string, sampler float64) (opentracing.Tracer, io.Closer, error) {
	samplerType := jaeger.SamplerTypeProbabilistic
	if sampler >= 1 {
		samplerType = jaeger.SamplerTypeConst
		sampler = 1
	}

	cfg := &jaegercfg.Configuration{
		ServiceName: serviceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  samplerType,
			Param: sampler,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LogSpans:           false,
			LocalAgentHostPort: agentHostPort,
		},
	}

	tracer, closer, err := cfg.NewTracer(jaegercfg.Logger(jaeger.NullLogger))
	if err != nil {
		return nil, nil, fmt.Errorf("init jaeger tracer: %w", err)
	}

	opentracing.SetGlobalTracer(tracer)
	return tracer, closer, nil
}
