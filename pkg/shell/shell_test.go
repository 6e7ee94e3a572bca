package shell

import (
	"context"
	"runtime"
	"testing"

	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner_MissingTool(t *testing.T) {
	ctx := logger.New().WithContext(context.Background())
	r := NewExecRunner()

	assert.False(t, r.Available("definitely-not-an-installed-tool"))

	_, err := r.Run(ctx, "definitely-not-an-installed-tool", "--help")
	require.Error(t, err)
	assert.True(t, errcodes.HasCode(err, errcodes.CodeToolUnavailable))
}

func TestExecRunner_CapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	ctx := logger.New().WithContext(context.Background())
	r := NewExecRunner()
	require.True(t, r.Available("sh"))

	res, err := r.Run(ctx, "sh", "-c", "echo out; echo err >&2; exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.False(t, res.OK())
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
}
