package testutil

import (
	"context"
	"os"
	"path/filepath"

	"github.com/andrebq/connectia/credstore"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

// AcquireStore opens a sqlite credential store under a fresh temp dir,
// the returned func closes the store and removes the directory.
func AcquireStore(ctx context.Context, t TestLog, name string) (*credstore.SQL, func()) {
	dir, err := os.MkdirTemp("", "connectia-tests")
	if err != nil {
		t.Fatal(err)
	}
	abspath := filepath.Join(dir, name+".db")
	store, err := credstore.Open(ctx, "sqlite://"+abspath)
	if err != nil {
		os.RemoveAll(dir)
		t.Fatal(err)
	}
	return store, func() {
		err := store.Close()
		if err != nil {
			t.Log("unable to close store", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}

// StaticDir creates a temp dir populated with files (relative path -> content)
func StaticDir(t TestLog, files map[string]string) (string, func()) {
	dir, err := os.MkdirTemp("", "connectia-static")
	if err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}
