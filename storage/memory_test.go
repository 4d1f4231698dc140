package storage

import (
	"bytes"
	"io"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()

	url, err := store.Save("events/1/memorias/m.pdf", bytes.NewReader([]byte("contenido")))
	if err != nil {
		t.Fatal(err)
	}
	if exists, _ := store.Exists(url); !exists {
		t.Fatal("saved file should exist")
	}

	rc, err := store.Open(url)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "contenido" {
		t.Errorf("read back %q", data)
	}

	if err := store.Delete(url); err != nil {
		t.Fatal(err)
	}
	if exists, _ := store.Exists(url); exists {
		t.Error("deleted file should not exist")
	}
	if _, err := store.Open(url); err == nil {
		t.Error("opening a deleted file should fail")
	}
}
