package main

import (
	"bytes"
	"strings"
	"testing"

	"split-or-steal/internal/commitment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := RootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPack(t *testing.T) {
	out, err := run(t, "pack", "steal,split,steal,steal,split")
	require.NoError(t, err)
	assert.Equal(t, "13 [steal split steal steal split]\n", out)

	_, err = run(t, "pack", "steal,split")
	assert.Error(t, err)
}

func TestCommitThenVerify(t *testing.T) {
	salt := commitment.Salt{0x42}
	want := commitment.Commit(7, 13, salt).Hex()

	out, err := run(t, "commit", "--room", "7", "--choices", "13", "--salt", salt.Hex())
	require.NoError(t, err)
	assert.Contains(t, out, "commitment: "+want)

	out, err = run(t, "verify", "--room", "7", "--choices", "steal,split,steal,steal,split", "--salt", salt.Hex(), "--commitment", want)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	_, err = run(t, "verify", "--room", "8", "--choices", "13", "--salt", salt.Hex(), "--commitment", want)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commitment mismatch")
}

func TestCommitDrawsSalt(t *testing.T) {
	out, err := run(t, "commit", "--room", "1", "--choices", "0")
	require.NoError(t, err)
	var saltLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "salt:") {
			saltLine = strings.TrimSpace(strings.TrimPrefix(line, "salt:"))
		}
	}
	_, err = commitment.ParseSalt(saltLine)
	assert.NoError(t, err)
}

func TestWei(t *testing.T) {
	out, err := run(t, "wei", "1.5")
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000\n", out)

	out, err = run(t, "wei", "--decimals", "6", "--reverse", "2500000")
	require.NoError(t, err)
	assert.Equal(t, "2.5\n", out)

	_, err = run(t, "wei", "--decimals", "2", "0.001")
	assert.Error(t, err)
	_, err = run(t, "wei", "-1")
	assert.Error(t, err)
}
