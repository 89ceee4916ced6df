package log

import (
	"bytes"
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/btcsuite/btclog"

	"github.com/mit-dci/cmtree/journal"
	"github.com/mit-dci/cmtree/mirror"
	"github.com/mit-dci/cmtree/tree"
)

// churn pushes one append through a journaled, mirrored tree so every
// subsystem has something to say.
func churn(t *testing.T) {
	t.Helper()

	dir, err := ioutil.TempDir("", "cmtreetest")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	cfg := tree.Config{Depth: 3}
	tr, err := tree.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	j, err := journal.Open(dir, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	m, err := mirror.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	tr.SetSink(tree.SinkFunc(func(ev tree.ChangeEvent) error {
		if err := j.Append(ev); err != nil {
			return err
		}
		return m.Apply(ev)
	}))

	if err := tr.Append(tree.Hash{1}); err != nil {
		t.Fatal(err)
	}
}

func TestUseLoggerForAll(t *testing.T) {
	var buf bytes.Buffer
	lg := btclog.NewBackend(&buf).Logger("CMTR")
	lg.SetLevel(btclog.LevelTrace)

	UseLoggerForAll(lg)
	defer DisableAll()

	churn(t)
	out := buf.String()
	for _, want := range []string{
		"seq 1 slot 0", "journaled seq 1", "mirrored seq 1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}

	DisableAll()
	buf.Reset()
	churn(t)
	if buf.Len() != 0 {
		t.Fatalf("output after DisableAll: %s", buf.String())
	}
}

func TestLoggersSplit(t *testing.T) {
	var treeBuf, mirrorBuf bytes.Buffer
	treeLog := btclog.NewBackend(&treeBuf).Logger("TREE")
	treeLog.SetLevel(btclog.LevelTrace)
	mirrorLog := btclog.NewBackend(&mirrorBuf).Logger("MIRR")
	mirrorLog.SetLevel(btclog.LevelTrace)

	// Journal left nil, so that subsystem stays quiet.
	l := Loggers{Tree: treeLog, Mirror: mirrorLog}
	l.Use()
	defer DisableAll()

	churn(t)

	if !strings.Contains(treeBuf.String(), "seq 1 slot 0") {
		t.Fatalf("tree output: %q", treeBuf.String())
	}
	if !strings.Contains(mirrorBuf.String(), "mirrored seq 1") {
		t.Fatalf("mirror output: %q", mirrorBuf.String())
	}
	if strings.Contains(treeBuf.String(), "journaled") ||
		strings.Contains(mirrorBuf.String(), "journaled") {
		t.Fatal("journal logged through a nil logger")
	}
}
