package sidecar

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"onprem-cd/internal/pkg/config"
	"onprem-cd/internal/pkg/metrics"
)

// GRPCClient 基于 grpc.ClientConn 的 sidecar 客户端
type GRPCClient struct {
	conn    *grpc.ClientConn
	timeout time.Duration
	log     *zap.Logger
}

// NewGRPCClient 创建连接, opts 追加在默认拨号参数之后
func NewGRPCClient(cfg *config.SidecarConfig, log *zap.Logger, opts ...grpc.DialOption) (*GRPCClient, error) {
	creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	if cfg.Insecure {
		creds = insecure.NewCredentials()
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)

	conn, err := grpc.NewClient(cfg.Address, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("连接sidecar失败: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GRPCClient{conn: conn, timeout: timeout, log: log}, nil
}

// ValidateChart 校验 chart
func (c *GRPCClient) ValidateChart(ctx context.Context, req *ValidateChartRequest) (*ValidateChartResponse, error) {
	resp := &ValidateChartResponse{}
	if err := c.invoke(ctx, MethodValidateChart, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// PublishChart 发布 chart 到仓库目录
func (c *GRPCClient) PublishChart(ctx context.Context, req *PublishChartRequest) (*PublishChartResponse, error) {
	resp := &PublishChartResponse{}
	if err := c.invoke(ctx, MethodPublishChart, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GenerateChart 生成 chart 归档
func (c *GRPCClient) GenerateChart(ctx context.Context, req *GenerateChartRequest) (*GenerateChartResponse, error) {
	resp := &GenerateChartResponse{}
	if err := c.invoke(ctx, MethodGenerateChart, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Close 关闭连接
func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) invoke(ctx context.Context, method string, req, resp interface{}) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	err := c.conn.Invoke(ctx, method, req, resp)
	code := status.Code(err)
	metrics.SidecarRequestDuration.WithLabelValues(method, code.String()).Observe(time.Since(start).Seconds())

	if err != nil {
		c.log.Warn("sidecar 调用失败", zap.String("method", method), zap.String("code", code.String()), zap.Error(err))
		return err
	}
	return nil
}
