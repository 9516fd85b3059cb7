// Command unf_vector_gen recomputes the expected fingerprints of the
// conformance suite and rewrites the file in place. With -check it only
// reports vectors whose recorded fingerprint is stale.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"xdao.co/unf/internal/vectors"
)

func main() {
	path := flag.String("file", "testdata/conformance/unf-6/vectors.json", "vector suite to regenerate")
	check := flag.Bool("check", false, "report stale vectors without writing")
	flag.Parse()

	suite, err := vectors.Load(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load: %v\n", err)
		os.Exit(1)
	}

	stale := 0
	for i := range suite.Vectors {
		v := &suite.Vectors[i]
		fp, err := v.Compute()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", v.Name, err)
			os.Exit(1)
		}
		if got := fp.String(); got != v.UNF {
			stale++
			fmt.Printf("%s: %s -> %s\n", v.Name, v.UNF, got)
			v.UNF = got
		}
	}
	for i := range suite.Combine {
		c := &suite.Combine[i]
		fp, err := c.Compute()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", c.Name, err)
			os.Exit(1)
		}
		if got := fp.String(); got != c.UNF {
			stale++
			fmt.Printf("%s: %s -> %s\n", c.Name, c.UNF, got)
			c.UNF = got
		}
	}

	if *check {
		if stale > 0 {
			fmt.Fprintf(os.Stderr, "%d stale vectors\n", stale)
			os.Exit(1)
		}
		return
	}

	out, err := vectors.Marshal(suite)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal: %v\n", err)
		os.Exit(1)
	}
	old, _ := os.ReadFile(*path)
	if bytes.Equal(old, out) {
		return
	}
	if err := os.WriteFile(*path, out, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d updated)\n", *path, stale)
}
