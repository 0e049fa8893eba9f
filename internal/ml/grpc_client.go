package ml

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/yourusername/mlb-predictor/internal/features"
	"github.com/yourusername/mlb-predictor/internal/team"
)

// BackendGRPC labels metrics for the gRPC classifier.
const BackendGRPC = "grpc"

// Full method names served by the model server. Both take and return a
// google.protobuf.Struct.
const (
	GRPCMethodModelInfo    = "/mlb.predictor.v1.Classifier/ModelInfo"
	GRPCMethodPredictProba = "/mlb.predictor.v1.Classifier/PredictProba"
)

// GRPCClassifier calls a model server over gRPC. Messages are Structs with
// the same fields as the JSON contract.
type GRPCClassifier struct {
	conn   *grpc.ClientConn
	apiKey string
	info   ModelInfo
	logger *logrus.Logger
}

// NewGRPCClassifier connects to target and fetches the served model's
// metadata. An https:// prefix selects TLS. Extra options are appended after
// the defaults.
func NewGRPCClassifier(ctx context.Context, target, apiKey string, logger *logrus.Logger, opts ...grpc.DialOption) (*GRPCClassifier, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	creds := grpc.WithTransportCredentials(insecure.NewCredentials())
	switch {
	case strings.HasPrefix(target, "https://"):
		creds = grpc.WithTransportCredentials(credentials.NewClientTLSFromCert(nil, ""))
		target = strings.TrimPrefix(target, "https://")
	case strings.HasPrefix(target, "http://"):
		target = strings.TrimPrefix(target, "http://")
	}

	dialOpts := append([]grpc.DialOption{
		creds,
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff: backoff.Config{
				BaseDelay:  1 * time.Second,
				Multiplier: 1.6,
				Jitter:     0.2,
				MaxDelay:   5 * time.Second,
			},
			MinConnectTimeout: 10 * time.Second,
		}),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                30 * time.Second,
			Timeout:             10 * time.Second,
			PermitWithoutStream: true,
		}),
	}, opts...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMLServiceUnavailable, err)
	}

	c := &GRPCClassifier{conn: conn, apiKey: apiKey, logger: logger}

	resp := new(structpb.Struct)
	if err := c.invoke(ctx, "model", GRPCMethodModelInfo, &structpb.Struct{}, resp); err != nil {
		_ = conn.Close()
		return nil, err
	}
	info, err := decodeModelInfo(resp)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	c.info = info

	logger.WithFields(logrus.Fields{
		"target":       target,
		"version":      info.Version,
		"classes":      len(info.Classes),
		"num_features": info.NumFeatures,
	}).Info("Connected to gRPC classifier")

	return c, nil
}

// PredictProbabilities sends the vector and validates the returned distribution.
func (c *GRPCClassifier) PredictProbabilities(ctx context.Context, vec features.Vector) (Distribution, error) {
	start := time.Now()
	defer func() {
		MLPredictionLatency.WithLabelValues(BackendGRPC).Observe(time.Since(start).Seconds())
	}()

	if err := features.CheckArity(vec, c.info.NumFeatures); err != nil {
		return Distribution{}, err
	}

	values := make([]interface{}, len(vec))
	for i, v := range vec {
		values[i] = v
	}
	req, err := structpb.NewStruct(map[string]interface{}{"features": values})
	if err != nil {
		return Distribution{}, fmt.Errorf("failed to encode request: %w", err)
	}

	resp := new(structpb.Struct)
	if err := c.invoke(ctx, "predict_proba", GRPCMethodPredictProba, req, resp); err != nil {
		return Distribution{}, err
	}

	classes, err := classList(resp, "classes")
	if err != nil {
		return Distribution{}, err
	}
	dist, err := NewDistribution(classes, numberList(resp, "probabilities"))
	if err != nil {
		MLGRPCErrorsTotal.WithLabelValues("predict_proba", "invalid_distribution").Inc()
		return Distribution{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	MLPredictionsTotal.WithLabelValues(BackendGRPC, "false").Inc()
	return dist, nil
}

// KnownClasses returns the classes reported by the model server.
func (c *GRPCClassifier) KnownClasses() []team.ID {
	out := make([]team.ID, len(c.info.Classes))
	copy(out, c.info.Classes)
	return out
}

// NumFeatures returns the served model's arity.
func (c *GRPCClassifier) NumFeatures() int {
	return c.info.NumFeatures
}

// Version returns the served model's version.
func (c *GRPCClassifier) Version() string {
	return c.info.Version
}

// Close closes the connection
func (c *GRPCClassifier) Close() error {
	return c.conn.Close()
}

func (c *GRPCClassifier) invoke(ctx context.Context, method, fullMethod string, req, resp *structpb.Struct) error {
	if c.apiKey != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "x-api-key", c.apiKey)
	}

	err := c.conn.Invoke(ctx, fullMethod, req, resp)
	if err == nil {
		return nil
	}

	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.ResourceExhausted:
		MLGRPCErrorsTotal.WithLabelValues(method, "unavailable").Inc()
		return fmt.Errorf("%w: %v", ErrMLServiceUnavailable, err)
	default:
		MLGRPCErrorsTotal.WithLabelValues(method, "rpc_failed").Inc()
		c.logger.WithError(err).WithField("method", fullMethod).Error("gRPC classifier call failed")
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
}

func decodeModelInfo(s *structpb.Struct) (ModelInfo, error) {
	classes, err := classList(s, "classes")
	if err != nil {
		return ModelInfo{}, err
	}
	info := ModelInfo{
		Classes:     classes,
		NumFeatures: int(s.GetFields()["num_features"].GetNumberValue()),
		Version:     s.GetFields()["version"].GetStringValue(),
	}
	if info.NumFeatures <= 0 || len(info.Classes) == 0 {
		return ModelInfo{}, fmt.Errorf("%w: model metadata has %d classes and %d features", ErrInvalidResponse, len(info.Classes), info.NumFeatures)
	}
	return info, nil
}

func numberList(s *structpb.Struct, field string) []float64 {
	values := s.GetFields()[field].GetListValue().GetValues()
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v.GetNumberValue()
	}
	return out
}

// classList reads integral class ids; a fractional id is a malformed reply.
func classList(s *structpb.Struct, field string) ([]team.ID, error) {
	nums := numberList(s, field)
	out := make([]team.ID, len(nums))
	for i, n := range nums {
		if n != float64(int(n)) {
			return nil, fmt.Errorf("%w: class id %v is not an integer", ErrInvalidResponse, n)
		}
		out[i] = team.ID(int(n))
	}
	return out, nil
}
