package link

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/carlodf/pansql/ast"
	"github.com/carlodf/pansql/dict"
	"github.com/carlodf/pansql/diag"
	"github.com/carlodf/pansql/ir"
)

// NetworkEndpoint is one `Open ... as Network for (Read|Write)` found
// while scanning a script-set for the Multi-Script Network Pass (spec
// §4.6).
type NetworkEndpoint struct {
	ScriptIndex int
	OpenName    string
	Direction   ast.Direction
	ConnString  string
	DictName    string
	StreamName  string
}

// CollectEndpoints scans script (at position scriptIndex in the
// compiled set) for Network-connector Open statements.
func CollectEndpoints(scriptIndex int, script *ast.Script) []NetworkEndpoint {
	var out []NetworkEndpoint
	for _, stmt := range script.Statements {
		o, ok := stmt.(*ast.OpenStmt)
		if !ok || o.Connector != "Network" {
			continue
		}
		out = append(out, NetworkEndpoint{
			ScriptIndex: scriptIndex, OpenName: o.Name, Direction: o.Direction,
			ConnString: o.ConnString, DictName: o.Ref.Dict, StreamName: o.Ref.Stream,
		})
	}
	return out
}

// NetworkPair is a writer matched to a later reader (spec §4.6:
// "writer in script i pairs with reader in script j > i").
type NetworkPair struct {
	Writer NetworkEndpoint
	Reader NetworkEndpoint
}

// Pair matches every writer endpoint to the first unpaired reader
// endpoint in a later script. An unmatched writer or reader is fatal
// (spec §4.6: "if unmatched, fatal").
func Pair(endpoints []NetworkEndpoint) ([]NetworkPair, error) {
	var writers, readers []NetworkEndpoint
	for _, e := range endpoints {
		if e.Direction == ast.DirWrite {
			writers = append(writers, e)
		} else {
			readers = append(readers, e)
		}
	}

	used := make([]bool, len(readers))
	var pairs []NetworkPair
	for _, w := range writers {
		matched := false
		for i, r := range readers {
			if used[i] || r.ScriptIndex <= w.ScriptIndex {
				continue
			}
			pairs = append(pairs, NetworkPair{Writer: w, Reader: r})
			used[i] = true
			matched = true
			break
		}
		if !matched {
			return nil, diag.NewStructuralError(fmt.Sprintf("Network writer %q in script %d has no matching reader in a later script", w.OpenName, w.ScriptIndex))
		}
	}
	for i, r := range readers {
		if !used[i] {
			return nil, diag.NewStructuralError(fmt.Sprintf("Network reader %q in script %d has no matching writer", r.OpenName, r.ScriptIndex))
		}
	}
	return pairs, nil
}

// ResolvedPair is a NetworkPair after temp-file allocation: the writer
// saves the destination dictionary into TempPath, and both endpoints'
// connection strings are rewritten to embed it (spec §4.6).
type ResolvedPair struct {
	NetworkPair
	TempFileName     string // the filename__N token assigned by counter
	TempPath         string
	WriterConnString string
	ReaderConnString string
}

// Resolve allocates a temp file per pair, serializes destDict (the
// writer-side script's output dictionary) into it with msgpack — a
// small structured record handed off out-of-band between two compiler
// invocations, distinct from the gzip+base64 blob the emitter embeds
// in source (spec §6; see dict.Dictionary.Compress) — and rewrites each
// endpoint's connection string to "<original>;<tempFile>".
func Resolve(pairs []NetworkPair, destDictFor func(NetworkPair) *dict.Dictionary, counter *ir.Counter) ([]ResolvedPair, error) {
	out := make([]ResolvedPair, 0, len(pairs))
	for _, p := range pairs {
		f, err := os.CreateTemp("", "pansql-net-"+uuid.New().String()+"-*.dict")
		if err != nil {
			return nil, diag.NewIOError("", "failed to allocate network handoff temp file", err)
		}
		raw, err := msgpack.Marshal(destDictFor(p))
		if err != nil {
			f.Close()
			return nil, diag.NewIOError(f.Name(), "failed to marshal handoff dictionary", err)
		}
		if _, err := f.Write(raw); err != nil {
			f.Close()
			return nil, diag.NewIOError(f.Name(), "failed to write handoff dictionary", err)
		}
		if err := f.Close(); err != nil {
			return nil, diag.NewIOError(f.Name(), "failed to close handoff temp file", err)
		}

		name := counter.Next("filename")
		out = append(out, ResolvedPair{
			NetworkPair:      p,
			TempFileName:     name,
			TempPath:         f.Name(),
			WriterConnString: p.Writer.ConnString + ";" + f.Name(),
			ReaderConnString: p.Reader.ConnString + ";" + f.Name(),
		})
	}
	return out, nil
}
