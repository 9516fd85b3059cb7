package grpccas

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/unf/storage"
)

// mapRPC turns a status error from the server back into the storage sentinel
// it was produced from.
func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return storage.ErrNotFound
	case codes.InvalidArgument:
		return storage.ErrInvalidCID
	case codes.DataLoss:
		return storage.ErrCIDMismatch
	case codes.AlreadyExists:
		return storage.ErrImmutable
	case codes.FailedPrecondition:
		return &RejectedError{Reason: st.Message()}
	default:
		return err
	}
}

// mapErr is the server-side inverse of mapRPC.
func mapErr(err error) error {
	var rejected *RejectedError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, storage.ErrInvalidCID):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, storage.ErrCIDMismatch):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, storage.ErrImmutable):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.As(err, &rejected):
		return status.Error(codes.FailedPrecondition, rejected.Reason)
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// RejectedError carries the reason a server-side validator refused a
// payload. It matches storage.ErrRejected under errors.Is.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return storage.ErrRejected.Error() + ": " + e.Reason }

func (e *RejectedError) Is(target error) bool { return target == storage.ErrRejected }
