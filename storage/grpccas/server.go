package grpccas

import (
	"context"
	"log/slog"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/unf/cidutil"
	"xdao.co/unf/internal/logging"
	"xdao.co/unf/storage"
)

// Server exposes a storage.CAS over the report store gRPC service.
type Server struct {
	UnimplementedCASServer
	CAS storage.CAS

	// Validate, when set, must accept a payload before it is stored.
	Validate storage.Validator
	Logger   *slog.Logger
}

func (s *Server) Put(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if s == nil || s.CAS == nil {
		return nil, status.Error(codes.Unavailable, "missing CAS")
	}
	b := in.GetValue()
	logger := logging.WithContext(ctx, s.Logger)
	if s.Validate != nil {
		if err := s.Validate(b); err != nil {
			logger.Warn("payload rejected", logging.Int("bytes", len(b)), logging.Error(err))
			return nil, mapErr(&RejectedError{Reason: err.Error()})
		}
	}
	expected, err := cidutil.Sum(b)
	if err != nil {
		return nil, status.Error(codes.Internal, "cid computation failed")
	}
	id, err := s.CAS.Put(ctx, b)
	if err != nil {
		logger.Error("put failed", logging.Error(err))
		return nil, mapErr(err)
	}
	if !id.Equals(expected) {
		return nil, status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	}
	logger.Info("stored", logging.String(logging.FieldReportCID, id.String()), logging.Int("bytes", len(b)))
	return wrapperspb.String(id.String()), nil
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.CAS == nil {
		return nil, status.Error(codes.Unavailable, "missing CAS")
	}
	id, err := cid.Decode(in.GetValue())
	if err != nil || !id.Defined() {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	}
	b, err := s.CAS.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	if !cidutil.Matches(id, b) {
		return nil, status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if s == nil || s.CAS == nil {
		return nil, status.Error(codes.Unavailable, "missing CAS")
	}
	id, err := cid.Decode(in.GetValue())
	if err != nil || !id.Defined() {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	}
	ok, err := s.CAS.Has(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bool(ok), nil
}
