package grpccas

import (
	"fmt"
	"strconv"
	"time"

	"xdao.co/unf/storage"
	"xdao.co/unf/storage/casregistry"
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "grpc",
		Description: "Remote report store (unf-casd over gRPC)",
		Usage:       casregistry.UsageCLI,
		Keys:        []string{"target", "timeout", "max_msg_bytes"},
		Open: func(opts casregistry.Options) (storage.CAS, func() error, error) {
			target := opts.String("target", "")
			if target == "" {
				return nil, nil, fmt.Errorf("grpc: option %q is required", "target")
			}
			timeout, err := time.ParseDuration(opts.String("timeout", "30s"))
			if err != nil {
				return nil, nil, fmt.Errorf("grpc: timeout: %w", err)
			}
			maxMsg, err := strconv.Atoi(opts.String("max_msg_bytes", "0"))
			if err != nil {
				return nil, nil, fmt.Errorf("grpc: max_msg_bytes: %w", err)
			}
			client, err := Dial(target, DialOptions{Timeout: timeout, MaxMsgBytes: maxMsg})
			if err != nil {
				return nil, nil, err
			}
			return client, client.Close, nil
		},
	})
}
