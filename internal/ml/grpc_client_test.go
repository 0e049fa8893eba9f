package ml

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/yourusername/mlb-predictor/internal/features"
	"github.com/yourusername/mlb-predictor/internal/team"
)

type classifierServer interface {
	ModelInfo(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	PredictProba(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type stubModelServer struct {
	info    map[string]interface{}
	predict func(in *structpb.Struct) (*structpb.Struct, error)
	apiKeys []string
}

func (s *stubModelServer) ModelInfo(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		s.apiKeys = append(s.apiKeys, md.Get("x-api-key")...)
	}
	return structpb.NewStruct(s.info)
}

func (s *stubModelServer) PredictProba(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.predict(in)
}

func unaryHandler(call func(classifierServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		return call(srv.(classifierServer), ctx, in)
	}
}

var classifierServiceDesc = grpc.ServiceDesc{
	ServiceName: "mlb.predictor.v1.Classifier",
	HandlerType: (*classifierServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ModelInfo",
			Handler: unaryHandler(func(s classifierServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.ModelInfo(ctx, in)
			}),
		},
		{
			MethodName: "PredictProba",
			Handler: unaryHandler(func(s classifierServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.PredictProba(ctx, in)
			}),
		},
	},
}

func startGRPCModelServer(t *testing.T, impl *stubModelServer) grpc.DialOption {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	srv.RegisterService(&classifierServiceDesc, impl)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
}

func defaultModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"classes":      []interface{}{0.0, 1.0},
		"num_features": 2.0,
		"version":      "grpc-3",
	}
}

func TestGRPCClassifierPredict(t *testing.T) {
	impl := &stubModelServer{
		info: defaultModelInfo(),
		predict: func(in *structpb.Struct) (*structpb.Struct, error) {
			got := in.GetFields()["features"].GetListValue().AsSlice()
			if len(got) != 2 || got[0] != 0.0 || got[1] != 1.0 {
				return nil, status.Error(codes.InvalidArgument, "unexpected features")
			}
			return structpb.NewStruct(map[string]interface{}{
				"classes":       []interface{}{0.0, 1.0},
				"probabilities": []interface{}{0.35, 0.65},
			})
		},
	}
	dialer := startGRPCModelServer(t, impl)

	clf, err := NewGRPCClassifier(context.Background(), "passthrough:///bufnet", "secret", nil, dialer)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clf.Close() })

	assert.Equal(t, 2, clf.NumFeatures())
	assert.Equal(t, []team.ID{0, 1}, clf.KnownClasses())
	assert.Equal(t, "grpc-3", clf.Version())
	assert.Equal(t, []string{"secret"}, impl.apiKeys)

	dist, err := clf.PredictProbabilities(context.Background(), features.Vector{0, 1})
	require.NoError(t, err)
	p, ok := dist.Probability(1)
	assert.True(t, ok)
	assert.InDelta(t, 0.65, p, 1e-9)
}

func TestGRPCClassifierErrors(t *testing.T) {
	tests := []struct {
		name    string
		predict func(in *structpb.Struct) (*structpb.Struct, error)
		vec     features.Vector
		wantErr error
	}{
		{
			name:    "arity mismatch",
			vec:     features.Vector{0, 1, 0.5},
			wantErr: features.ErrArityMismatch,
		},
		{
			name: "server unavailable",
			predict: func(*structpb.Struct) (*structpb.Struct, error) {
				return nil, status.Error(codes.Unavailable, "draining")
			},
			vec:     features.Vector{0, 1},
			wantErr: ErrMLServiceUnavailable,
		},
		{
			name: "internal error",
			predict: func(*structpb.Struct) (*structpb.Struct, error) {
				return nil, status.Error(codes.Internal, "boom")
			},
			vec:     features.Vector{0, 1},
			wantErr: ErrInvalidResponse,
		},
		{
			name: "mismatched lengths",
			predict: func(*structpb.Struct) (*structpb.Struct, error) {
				return structpb.NewStruct(map[string]interface{}{
					"classes":       []interface{}{0.0, 1.0},
					"probabilities": []interface{}{1.0},
				})
			},
			vec:     features.Vector{0, 1},
			wantErr: ErrInvalidResponse,
		},
		{
			name: "fractional class id",
			predict: func(*structpb.Struct) (*structpb.Struct, error) {
				return structpb.NewStruct(map[string]interface{}{
					"classes":       []interface{}{0.5},
					"probabilities": []interface{}{1.0},
				})
			},
			vec:     features.Vector{0, 1},
			wantErr: ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialer := startGRPCModelServer(t, &stubModelServer{info: defaultModelInfo(), predict: tt.predict})
			clf, err := NewGRPCClassifier(context.Background(), "passthrough:///bufnet", "", nil, dialer)
			require.NoError(t, err)
			t.Cleanup(func() { _ = clf.Close() })

			_, err = clf.PredictProbabilities(context.Background(), tt.vec)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGRPCClassifierRejectsBadMetadata(t *testing.T) {
	dialer := startGRPCModelServer(t, &stubModelServer{info: map[string]interface{}{
		"classes":      []interface{}{},
		"num_features": 2.0,
	}})

	_, err := NewGRPCClassifier(context.Background(), "passthrough:///bufnet", "", nil, dialer)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}
