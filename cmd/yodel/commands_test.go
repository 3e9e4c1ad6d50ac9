package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yodel/internal/storagekey"
	"yodel/internal/testsupport"
	"yodel/internal/track"
)

func TestAddAndListTracks(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "add", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "youtu.be/9bZkp7q19f0", "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Queued dQw4w9WgXcQ")
	requireContains(t, out, "2 tracks queued, 0 skipped")

	out, err = env.run(t, "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var views []trackView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode list output: %v\n%s", err, out)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(views))
	}
	if views[0].ID != "dQw4w9WgXcQ" || views[1].ID != "9bZkp7q19f0" {
		t.Fatalf("unexpected order: %s, %s", views[0].ID, views[1].ID)
	}
	if views[0].Status != string(track.StatusPending) || views[0].Title != "dQw4w9WgXcQ" {
		t.Fatalf("unexpected view %+v", views[0])
	}

	out, err = env.run(t, "list")
	if err != nil {
		t.Fatalf("list table: %v", err)
	}
	requireContains(t, out, "9bZkp7q19f0")
	requireContains(t, out, "Pending")
}

func TestAddDuplicateAndReplace(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, err := env.run(t, "add", "--title", "First", "dQw4w9WgXcQ"); err != nil {
		t.Fatalf("add: %v", err)
	}
	out, err := env.run(t, "add", "--title", "Second", "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("add duplicate: %v", err)
	}
	requireContains(t, out, "already exists")
	requireContains(t, out, "0 tracks queued, 1 skipped")

	out, err = env.run(t, "add", "--replace", "--title", "Second", "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("add --replace: %v", err)
	}
	requireContains(t, out, "1 track queued")

	store := testsupport.MustOpenStore(t, env.cfg)
	got, err := store.Get(context.Background(), "dQw4w9WgXcQ")
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.Title != "Second" {
		t.Fatalf("expected replaced title, got %q", got.Title)
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	env := setupCLITestEnv(t)

	cases := []struct {
		name string
		args []string
		want string
	}{
		{name: "not an id", args: []string{"add", "hello"}, want: "no track id"},
		{name: "title with many", args: []string{"add", "--title", "x", "dQw4w9WgXcQ", "9bZkp7q19f0"}, want: "--title applies to a single track"},
		{name: "playlist without list", args: []string{"add", "--playlist", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}, want: "no playlist id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.run(t, tc.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			requireContains(t, err.Error(), tc.want)
		})
	}
}

func TestRetryAndRemove(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	ctx := context.Background()

	failed := testsupport.NewTrack(t, store, "aaaaaaaaaaa", "Broken")
	failed.Status = track.StatusFailed
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("update: %v", err)
	}
	testsupport.NewTrack(t, store, "bbbbbbbbbbb", "Waiting")

	out, err := env.run(t, "retry")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	requireContains(t, out, "1 track requeued")
	got, _ := store.Get(ctx, "aaaaaaaaaaa")
	if got.Status != track.StatusPending {
		t.Fatalf("expected pending after retry, got %s", got.Status)
	}

	if _, err := env.run(t, "remove"); err == nil {
		t.Fatal("expected remove without arguments to fail")
	}
	out, err = env.run(t, "remove", "--status", "pending")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	requireContains(t, out, "2 tracks removed")
	if count, _ := store.Count(ctx); count != 0 {
		t.Fatalf("expected empty store, got %d", count)
	}
}

func TestBackupAndRestore(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.run(t, "add", "dQw4w9WgXcQ", "9bZkp7q19f0"); err != nil {
		t.Fatalf("add: %v", err)
	}
	backupPath := filepath.Join(testsupport.BaseDir(env.cfg), "backup.json")

	out, err := env.run(t, "backup", backupPath)
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	requireContains(t, out, "Exported 2 tracks")

	if _, err := env.run(t, "remove", "dQw4w9WgXcQ"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	out, err = env.run(t, "restore", backupPath)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	requireContains(t, out, "Restored 1 track of 2")
}

func TestStatusJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.run(t, "add", "dQw4w9WgXcQ"); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := env.run(t, "status", "--json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var view statusView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if view.DaemonRunning {
		t.Fatal("expected daemon to be stopped")
	}
	if view.Total != 1 || view.Counts["pending"] != 1 {
		t.Fatalf("unexpected counts %+v", view)
	}
}

func TestReconcileMarksMissingFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	ctx := context.Background()

	present := filepath.Join(env.cfg.Paths.DownloadsDir, "present.mp3")
	testsupport.WriteFile(t, present, 16)
	codec := storagekey.Codec{}
	for id, path := range map[string]string{
		"aaaaaaaaaaa": present,
		"bbbbbbbbbbb": filepath.Join(env.cfg.Paths.DownloadsDir, "gone.mp3"),
	} {
		item := testsupport.NewTrack(t, store, id, id)
		item.Status = track.StatusDownloaded
		item.AudioFileKey = codec.Encode(path)
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	out, err := env.run(t, "reconcile")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	requireContains(t, out, "Missing: bbbbbbbbbbb")
	if strings.Contains(out, "aaaaaaaaaaa") {
		t.Fatalf("present track reported missing: %s", out)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	target := filepath.Join(t.TempDir(), "yodel", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init"}, target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, target)
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init"}, target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}

	env := setupCLITestEnv(t)
	out, err = env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	out, err = env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "downloads_dir")
}
