package sidecar

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"onprem-cd/internal/core/chart"
	"onprem-cd/internal/pkg/config"
)

type fakeServer struct {
	published []*PublishChartRequest
	block     bool
}

func (s *fakeServer) validate(_ context.Context, req *ValidateChartRequest) (*ValidateChartResponse, error) {
	if len(req.Chart.Services) == 0 {
		return &ValidateChartResponse{Valid: false, Errors: []string{"services are required"}}, nil
	}
	return &ValidateChartResponse{Valid: true}, nil
}

func (s *fakeServer) publish(ctx context.Context, req *PublishChartRequest) (*PublishChartResponse, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if req.RepositoryDirectory == "" {
		return nil, status.Error(codes.InvalidArgument, "repository directory is required")
	}
	s.published = append(s.published, req)
	return &PublishChartResponse{}, nil
}

func (s *fakeServer) generate(_ context.Context, req *GenerateChartRequest) (*GenerateChartResponse, error) {
	return &GenerateChartResponse{Chart: []byte(req.Chart.Name + "-" + req.Chart.Version)}, nil
}

func unary[Req any, Resp any](call func(*fakeServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		return call(srv.(*fakeServer), ctx, in)
	}
}

var fakeServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ValidateChart", Handler: unary((*fakeServer).validate)},
		{MethodName: "PublishChart", Handler: unary((*fakeServer).publish)},
		{MethodName: "GenerateChart", Handler: unary((*fakeServer).generate)},
	},
}

func setupClient(t *testing.T, srv *fakeServer, timeout time.Duration) *GRPCClient {
	t.Helper()
	listener := bufconn.Listen(1024 * 1024)
	server := grpc.NewServer()
	server.RegisterService(&fakeServiceDesc, srv)
	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(server.Stop)

	client, err := NewGRPCClient(
		&config.SidecarConfig{Address: "passthrough:///bufnet", Timeout: timeout, Insecure: true},
		zap.NewNop(),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func testChart() *chart.ChartParams {
	return &chart.ChartParams{
		Name:     "acme",
		Version:  "1.0.0",
		Services: []*chart.ServiceParams{{Name: "web", ReplicaCount: 1, Image: &chart.Image{Name: "nginx", Tag: "latest"}}},
	}
}

func TestValidateChart(t *testing.T) {
	client := setupClient(t, &fakeServer{}, time.Second)

	resp, err := client.ValidateChart(context.Background(), &ValidateChartRequest{Chart: testChart()})
	require.NoError(t, err)
	assert.True(t, resp.Valid)

	resp, err = client.ValidateChart(context.Background(), &ValidateChartRequest{Chart: &chart.ChartParams{Name: "acme"}})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.Equal(t, []string{"services are required"}, resp.Errors)
}

func TestPublishChart(t *testing.T) {
	srv := &fakeServer{}
	client := setupClient(t, srv, time.Second)

	_, err := client.PublishChart(context.Background(), &PublishChartRequest{Chart: testChart(), RepositoryDirectory: "acme-ci"})
	require.NoError(t, err)
	require.Len(t, srv.published, 1)
	assert.Equal(t, "acme-ci", srv.published[0].RepositoryDirectory)
	assert.Equal(t, "web", srv.published[0].Chart.Services[0].Name)

	_, err = client.PublishChart(context.Background(), &PublishChartRequest{Chart: testChart()})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGenerateChart(t *testing.T) {
	client := setupClient(t, &fakeServer{}, time.Second)

	resp, err := client.GenerateChart(context.Background(), &GenerateChartRequest{Chart: testChart()})
	require.NoError(t, err)
	assert.Equal(t, []byte("acme-1.0.0"), resp.Chart)
}

func TestCallTimeout(t *testing.T) {
	client := setupClient(t, &fakeServer{block: true}, 50*time.Millisecond)

	_, err := client.PublishChart(context.Background(), &PublishChartRequest{Chart: testChart(), RepositoryDirectory: "acme-ci"})
	assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
}

func TestMockClient(t *testing.T) {
	m := NewMockClient()
	m.ValidationErrors = []string{"bad port"}

	resp, err := m.ValidateChart(context.Background(), &ValidateChartRequest{Chart: testChart()})
	require.NoError(t, err)
	assert.False(t, resp.Valid)

	_, err = m.PublishChart(context.Background(), &PublishChartRequest{RepositoryDirectory: "r-u"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r-u"}, m.PublishedDirectories())
}
