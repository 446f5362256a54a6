// Package fastq aggregates per-run compressed read fragments into the single
// combined stream the aligner and classifier consume.
package fastq

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"blainsmith.com/go/seahash"
	"github.com/google/uuid"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// CombinedName is the fixed output filename of the aggregated read stream.
const CombinedName = "concatenated.fastq"

// ErrNoReads indicates that no read fragments were found under the directory.
var ErrNoReads = errors.New("no fastq.gz fragments found")

// ConcatResult describes one aggregation run.
type ConcatResult struct {
	// Path of the combined read stream.
	Path string
	// Reused is true when an existing combined file was kept and no work
	// was performed.
	Reused bool
	// Fragments is the number of fragment files concatenated.
	Fragments int
	// Bytes written to the combined file.
	Bytes int64
	// Fingerprint identifies the fragment set (names and sizes) that
	// produced the output. It is logged so a stale reused file can be
	// spotted; reuse itself is keyed only on output existence.
	Fingerprint uint64
}

// Concatenate locates every *.fastq.gz file under dir recursively and writes
// their raw bytes, in lexical walk order, to dir/concatenated.fastq. The
// fragments stay compressed; gzip streams concatenate cleanly and the
// downstream tools do not depend on read order.
//
// The combined file doubles as the cache key: if it already exists the call
// returns immediately with Reused set, unless force is true. The output is
// written to a temporary file and renamed into place on completion, so a
// concurrent or interrupted run never exposes a partial stream.
func Concatenate(dir string, force bool) (res ConcatResult, err error) {
	if _, err = os.Stat(dir); err != nil {
		return res, errors.E(err, "reads directory inaccessible", dir)
	}
	res.Path = filepath.Join(dir, CombinedName)
	if !force {
		if _, serr := os.Stat(res.Path); serr == nil {
			res.Reused = true
			log.Printf("using previously generated %s", res.Path)
			return res, nil
		}
	}

	fragments, err := listFragments(dir)
	if err != nil {
		return res, err
	}
	if len(fragments) == 0 {
		return res, ErrNoReads
	}
	res.Fragments = len(fragments)
	res.Fingerprint = fingerprint(fragments)

	tmp := res.Path + ".tmp-" + uuid.New().String()
	out, err := os.Create(tmp)
	if err != nil {
		return res, errors.E(err, "creating combined read file")
	}
	defer func() {
		if err != nil {
			out.Close()    // nolint: errcheck
			os.Remove(tmp) // nolint: errcheck
		}
	}()
	for _, frag := range fragments {
		in, oerr := os.Open(frag)
		if oerr != nil {
			return res, errors.E(oerr, "opening fragment", frag)
		}
		n, cerr := io.Copy(out, in)
		in.Close() // nolint: errcheck
		if cerr != nil {
			return res, errors.E(cerr, "appending fragment", frag)
		}
		res.Bytes += n
	}
	if err = out.Close(); err != nil {
		return res, errors.E(err, "closing combined read file")
	}
	if err = os.Rename(tmp, res.Path); err != nil {
		return res, errors.E(err, "publishing combined read file")
	}
	log.Printf("concatenated %d fragments (%d bytes, fingerprint %x) into %s",
		res.Fragments, res.Bytes, res.Fingerprint, res.Path)
	return res, nil
}

// listFragments returns every *.fastq.gz under dir, in the order produced by
// filepath.Walk (lexical per directory).
func listFragments(dir string) ([]string, error) {
	var fragments []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, werr error) error {
		if werr != nil {
			return werr
		}
		if info.IsDir() {
			return nil
		}
		if strings.HasSuffix(info.Name(), ".fastq.gz") {
			fragments = append(fragments, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.E(err, "scanning for read fragments", dir)
	}
	return fragments, nil
}

// fingerprint hashes fragment names and sizes, not contents; it is cheap and
// changes whenever reads land after the combined file was built.
func fingerprint(fragments []string) uint64 {
	h := seahash.New()
	for _, frag := range fragments {
		info, err := os.Stat(frag)
		if err != nil {
			continue
		}
		fmt.Fprintf(h, "%s:%d\n", filepath.Base(frag), info.Size())
	}
	return h.Sum64()
}
