package poses_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/poses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multiFasta = ">binder_1 designed\nMKVLL\nAGG\n>binder_2\nGSGSG\n"

func TestNew_SplitsMultiRecordFasta(t *testing.T) {
	dir := t.TempDir()
	work := filepath.Join(dir, "work")
	in := writeFiles(t, filepath.Join(dir, "in"), "first.pdb", "last.pdb")
	multi := filepath.Join(dir, "in", "designs.fa")
	require.NoError(t, os.WriteFile(multi, []byte(multiFasta), 0644))

	p, err := poses.New(poses.Files(in[0], multi, in[1]), poses.WithWorkDir(work))
	require.NoError(t, err)

	split := filepath.Join(work, "input_fastas_split")
	assert.Equal(t, []string{"first", "binder_1", "binder_2", "last"}, p.Descriptions())
	assert.Equal(t, filepath.Join(split, "binder_1.fa"), p.PosesList()[1])

	data, err := os.ReadFile(filepath.Join(split, "binder_1.fa"))
	require.NoError(t, err)
	assert.Equal(t, ">binder_1 designed\nMKVLLAGG\n", string(data))

	t.Run("Stale Split Is Rewritten", func(t *testing.T) {
		stale := filepath.Join(split, "binder_2.fa")
		require.NoError(t, os.WriteFile(stale, []byte(">binder_2\nAAAAA\n"), 0644))

		_, err := poses.New(poses.File(multi), poses.WithWorkDir(work))
		require.NoError(t, err)

		data, err := os.ReadFile(stale)
		require.NoError(t, err)
		assert.Equal(t, ">binder_2\nGSGSG\n", string(data))
	})
}

func TestNew_SingleRecordFastaIsKept(t *testing.T) {
	dir := t.TempDir()
	single := filepath.Join(dir, "one.fa")
	require.NoError(t, os.WriteFile(single, []byte(">one\nMKV\n"), 0644))

	p, err := poses.New(poses.File(single))
	require.NoError(t, err)
	assert.Equal(t, []string{single}, p.PosesList())
}

func TestNew_MultiFastaRequiresWorkDir(t *testing.T) {
	multi := filepath.Join(t.TempDir(), "designs.fa")
	require.NoError(t, os.WriteFile(multi, []byte(multiFasta), 0644))

	_, err := poses.New(poses.File(multi))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestNew_FastaDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	multi := filepath.Join(dir, "dups.fasta")
	require.NoError(t, os.WriteFile(multi, []byte(">x\nAA\n>x\nGG\n"), 0644))

	_, err := poses.New(poses.File(multi), poses.WithWorkDir(filepath.Join(dir, "work")))
	assert.ErrorIs(t, err, domain.ErrSchemaViolation)
}
