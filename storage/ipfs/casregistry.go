package ipfs

import (
	"xdao.co/unf/storage"
	"xdao.co/unf/storage/casregistry"
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "ipfs",
		Description: "Local Kubo repository via the ipfs CLI (offline)",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		Keys:        []string{"bin", "repo"},
		Open: func(opts casregistry.Options) (storage.CAS, func() error, error) {
			return New(Options{Bin: opts.String("bin", ""), Repo: opts.String("repo", "")}), nil, nil
		},
	})
}
