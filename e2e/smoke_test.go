//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const repoRootRel = ".."   // relative to ./e2e
const mainPkgRel = "./cmd" // main.go lives in cmd/

const seedSQL = `CREATE TABLE station (id INTEGER PRIMARY KEY, station TEXT, name TEXT, latitude FLOAT, longitude FLOAT, elevation FLOAT);
CREATE TABLE measurement (id INTEGER PRIMARY KEY, station TEXT, date TEXT, prcp FLOAT, tobs FLOAT);
INSERT INTO station (station, name) VALUES ('USC1', 'WAIKIKI 717.2, HI US');
INSERT INTO measurement (station, date, prcp, tobs) VALUES ('USC1', '2017-08-23', 0.0, 79), ('USC1', '2017-08-22', 0.02, 80);`

func TestSmoke_Routes(t *testing.T) {
	repoRoot := repoRootPath(t)

	// Seed a hawaii-shaped store from a SQLite container into a host temp dir
	sqlitePath := startSQLite(t)

	bin := buildBinary(t, repoRoot)
	addr := pickFreeAddr(t)

	cmd := exec.Command(bin)
	cmd.Env = append(os.Environ(),
		"APP_ENV=dev",
		"LOG_LEVEL=info",
		"HTTP_ADDR="+addr,
		"DB_DRIVER=sqlite3",
		"SQLITE_PATH="+sqlitePath,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})

	client := &http.Client{Timeout: 2 * time.Second}
	base := "http://" + addr

	waitForOK(t, client, base+"/healthz", 5*time.Second)

	tests := []struct {
		path string
		want string
	}{
		{path: "/api/v1.0/precipitation", want: `{"2017-08-22":0.02,"2017-08-23":0}`},
		{path: "/api/v1.0/stations", want: `["USC1"]`},
		{path: "/api/v1.0/tobs", want: `[79,80]`},
		{path: "/api/v1.0/2017-08-23", want: `[79,79,79]`},
		{path: "/api/v1.0/2017-08-22/2017-08-23", want: `[79,79.5,80]`},
		{path: "/api/v1.0/2099-01-01", want: `[null,null,null]`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := client.Get(base + tt.path)
			if err != nil {
				t.Fatalf("GET %s: %v", tt.path, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status=%d want=%d", resp.StatusCode, http.StatusOK)
			}
			var got, want any
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Fatalf("decode json: %v", err)
			}
			if err := json.Unmarshal([]byte(tt.want), &want); err != nil {
				t.Fatalf("decode want: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("body=%v want=%v", got, want)
			}
		})
	}

	resp, err := client.Get(base + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if !strings.Contains(string(b), "/api/v1.0/precipitation") {
		t.Fatalf("welcome body=%q", b)
	}

	stopServer(t, cmd)
}

func startSQLite(t *testing.T) string {
	t.Helper()

	hostDir := t.TempDir()
	dbPath := filepath.Join(hostDir, "hawaii.sqlite")
	if err := os.WriteFile(filepath.Join(hostDir, "seed.sql"), []byte(seedSQL), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:      "nouchka/sqlite3:latest",
		WorkingDir: "/data",
		Entrypoint: []string{"sh", "-c"},
		Cmd: []string{
			"sqlite3 /data/hawaii.sqlite < /data/seed.sql && " +
				"chmod 644 /data/hawaii.sqlite && " +
				"echo 'sqlite ready' && " +
				"tail -f /dev/null",
		},

		HostConfigModifier: func(hc *container.HostConfig) {
			hc.Binds = append(hc.Binds, hostDir+":/data")
		},
		WaitingFor: wait.ForLog("sqlite ready").WithStartupTimeout(30 * time.Second),
	}

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start sqlite container: %v", err)
	}

	t.Cleanup(func() {
		_ = c.Terminate(ctx)
	})

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("sqlite store not created: %v", err)
	}

	return dbPath
}

func repoRootPath(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	repo := filepath.Clean(filepath.Join(wd, repoRootRel))
	if _, err := os.Stat(filepath.Join(repo, "go.mod")); err != nil {
		t.Fatalf("repo root %q does not contain go.mod: %v", repo, err)
	}

	return repo
}

func buildBinary(t *testing.T, repoRoot string) string {
	t.Helper()

	tmp := t.TempDir()
	out := filepath.Join(tmp, "surfsup-server")

	build := exec.Command("go", "build", "-o", out, mainPkgRel)
	build.Dir = repoRoot
	build.Env = os.Environ()

	b, err := build.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(b))
	}

	return out
}

func pickFreeAddr(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen :0: %v", err)
	}
	defer ln.Close()

	return ln.Addr().String()
}

func waitForOK(t *testing.T, client *http.Client, url string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server not healthy after %s: %s", timeout, url)
}

func stopServer(t *testing.T, cmd *exec.Cmd) {
	t.Helper()

	_ = cmd.Process.Signal(syscall.SIGTERM)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		t.Fatalf("server did not exit in time")
	case err := <-done:
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				t.Fatalf("server exited non-zero: %v", err)
			}
			t.Fatalf("server wait error: %v", err)
		}
	}
}
