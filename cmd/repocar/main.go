// repocar prints the records of a repository archive as JSON lines.
//
//	repocar [flags] repo.car[.zst]
//
// The archive may be zstd compressed. With --verify the commit signature
// is checked against the given did:key before anything is printed. With
// --store every verified block is also written to a badger database in
// the given directory.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/spf13/pflag"

	"github.com/forestrie/go-repocar/blockstore"
	"github.com/forestrie/go-repocar/car"
	"github.com/forestrie/go-repocar/commit"
	"github.com/forestrie/go-repocar/contentid"
	"github.com/forestrie/go-repocar/dagcbor"
	"github.com/forestrie/go-repocar/mst"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	verify   string
	store    string
	compact  bool
	showHead bool
	logLevel string
	maxBlock uint64
}

func parseFlags(args []string) (config, string, error) {
	var cfg config
	flagSet := pflag.NewFlagSet("repocar", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.verify, "verify", "", "did:key the commit must be signed by")
	flagSet.StringVar(&cfg.store, "store", "", "badger directory to copy verified blocks into")
	flagSet.BoolVar(&cfg.compact, "compact", false, "print uri and cid only, without record values")
	flagSet.BoolVar(&cfg.showHead, "commit", false, "print the commit block in diagnostic notation and exit")
	flagSet.StringVar(&cfg.logLevel, "log-level", "NOOP", "logger level, e.g. DEBUG or INFO")
	flagSet.Uint64Var(&cfg.maxBlock, "max-block-size", car.DefaultMaxBlockSize, "largest accepted archive frame in bytes")
	flagSet.Usage = func() {
		fmt.Fprintf(flagSet.Output(), "usage: repocar [flags] repo.car[.zst]\n")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return config{}, "", err
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return config{}, "", fmt.Errorf("expected one archive path, got %d", flagSet.NArg())
	}
	return cfg, flagSet.Arg(0), nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, path, err := parseFlags(args)
	if err != nil {
		return err
	}

	logger.New(cfg.logLevel)
	defer logger.OnExit()
	log := logger.Sugar.WithServiceName("repocar")

	r, err := car.Open(path, car.WithLogger(log), car.WithMaxBlockSize(cfg.maxBlock))
	if err != nil {
		return err
	}
	defer r.Close()

	archive, err := r.Archive()
	if err != nil {
		return err
	}
	log.Debugf("%s: %d blocks, %d skipped", path, len(archive.Blocks), archive.Skipped)

	if cfg.showHead || cfg.verify != "" {
		head, err := archive.SignedCommit()
		if err != nil {
			return err
		}
		if cfg.verify != "" {
			m, _ := head.Map()
			if err := commit.VerifyWithProvider(m, commit.DIDKey(cfg.verify)); err != nil {
				return fmt.Errorf("commit %s: %w", contentid.Encode(head.CID), err)
			}
			log.Infof("commit %s signed by %s", contentid.Encode(head.CID), cfg.verify)
		}
		if cfg.showHead {
			diag, err := dagcbor.Diagnose(head.Raw)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(stdout, diag)
			return err
		}
	}

	if cfg.store != "" {
		store, err := blockstore.NewBadger(cfg.store, blockstore.WithLogger(log))
		if err != nil {
			return err
		}
		defer store.Close()
		n, err := archive.CopyTo(ctx, store)
		if err != nil {
			return err
		}
		log.Infof("stored %d blocks in %s", n, cfg.store)
	}

	records, err := mst.Records(ctx, archive, mst.WithWalkLogger(log))
	if err != nil {
		return err
	}
	return writeRecords(stdout, records, cfg.compact)
}

type recordLine struct {
	URI   string `json:"uri"`
	CID   string `json:"cid"`
	Value any    `json:"value,omitempty"`
}

func writeRecords(w io.Writer, records []mst.Record, compact bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		line := recordLine{URI: r.URI, CID: contentid.Encode(r.CID)}
		if !compact {
			line.Value = r.Value
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}
