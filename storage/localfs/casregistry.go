package localfs

import (
	"fmt"

	"xdao.co/unf/storage"
	"xdao.co/unf/storage/casregistry"
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "localfs",
		Description: "Local filesystem report store (directory)",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		Keys:        []string{"dir"},
		Open: func(opts casregistry.Options) (storage.CAS, func() error, error) {
			dir := opts.String("dir", "")
			if dir == "" {
				return nil, nil, fmt.Errorf("localfs: option %q is required", "dir")
			}
			cas, err := New(dir)
			return cas, nil, err
		},
	})
}
