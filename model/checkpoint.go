package model

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rushteam/ecomrec/core"
)

// CheckpointMeta 描述一份训练产物：训练配置隐式决定了权重的形状，
// 加载时任何一项对不上都必须失败，而不是加载出错位的嵌入。
type CheckpointMeta struct {
	NumUsers  int64
	NumItems  int64
	EmbSize   int
	Hidden    []int
	Dropout   float64
	Epochs    int
	TrainedAt time.Time

	// Checksum 是权重负载的 SHA-256，防止半截写入或位腐蚀
	Checksum string
}

// checkpointPayload 是序列化的全部可学习参数。
type checkpointPayload struct {
	UserEmb [][]float64
	ItemEmb [][]float64
	MLPW    [][][]float64
	MLPB    [][]float64
}

type checkpointFile struct {
	Meta    CheckpointMeta
	Payload []byte // gzip(gob(checkpointPayload))
}

// SaveCheckpoint 将模型权重序列化为单个二进制产物。
// 先写临时文件再 rename，产物写入后不可变。
func SaveCheckpoint(path string, m *NCF, epochs int) error {
	payload := checkpointPayload{
		UserEmb: m.userEmb,
		ItemEmb: m.itemEmb,
		MLPW:    m.mlpW,
		MLPB:    m.mlpB,
	}

	var raw bytes.Buffer
	gz := gzip.NewWriter(&raw)
	if err := gob.NewEncoder(gz).Encode(&payload); err != nil {
		return fmt.Errorf("encode checkpoint payload: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("compress checkpoint payload: %w", err)
	}

	sum := sha256.Sum256(raw.Bytes())
	file := checkpointFile{
		Meta: CheckpointMeta{
			NumUsers:  m.cfg.NumUsers,
			NumItems:  m.cfg.NumItems,
			EmbSize:   m.cfg.EmbSize,
			Hidden:    m.cfg.Hidden,
			Dropout:   m.cfg.Dropout,
			Epochs:    epochs,
			TrainedAt: time.Now().UTC(),
			Checksum:  hex.EncodeToString(sum[:]),
		},
		Payload: raw.Bytes(),
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create checkpoint: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(&file); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close checkpoint: %w", err)
	}
	return os.Rename(tmp, filepath.Clean(path))
}

// LoadCheckpoint 读取训练产物并重建模型。
// 校验 checksum 与所有维度；任何不一致返回 DIMENSION_MISMATCH 错误。
func LoadCheckpoint(path string) (*NCF, *CheckpointMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open checkpoint: %w", err)
	}
	defer f.Close()

	var file checkpointFile
	if err := gob.NewDecoder(f).Decode(&file); err != nil {
		return nil, nil, fmt.Errorf("decode checkpoint: %w", err)
	}

	sum := sha256.Sum256(file.Payload)
	if hex.EncodeToString(sum[:]) != file.Meta.Checksum {
		return nil, nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeDataIntegrity,
			"model: checkpoint checksum mismatch, artifact corrupted")
	}

	gz, err := gzip.NewReader(bytes.NewReader(file.Payload))
	if err != nil {
		return nil, nil, fmt.Errorf("decompress checkpoint: %w", err)
	}
	var payload checkpointPayload
	if err := gob.NewDecoder(gz).Decode(&payload); err != nil {
		return nil, nil, fmt.Errorf("decode checkpoint payload: %w", err)
	}
	if _, err := io.Copy(io.Discard, gz); err != nil {
		return nil, nil, fmt.Errorf("drain checkpoint payload: %w", err)
	}

	meta := file.Meta
	if err := verifyDims(&meta, &payload); err != nil {
		return nil, nil, err
	}

	m := &NCF{
		cfg: NCFConfig{
			NumUsers: meta.NumUsers,
			NumItems: meta.NumItems,
			EmbSize:  meta.EmbSize,
			Hidden:   meta.Hidden,
			Dropout:  meta.Dropout,
		},
		userEmb: payload.UserEmb,
		itemEmb: payload.ItemEmb,
		mlpW:    payload.MLPW,
		mlpB:    payload.MLPB,
	}
	return m, &meta, nil
}

func verifyDims(meta *CheckpointMeta, payload *checkpointPayload) error {
	mismatch := func(format string, args ...any) error {
		return core.NewDomainErrorf(core.ModuleModel, core.ErrorCodeDimensionMismatch,
			"model: checkpoint dimension mismatch: "+format, args...)
	}

	if int64(len(payload.UserEmb)) != meta.NumUsers+1 {
		return mismatch("user table has %d rows, meta declares %d users", len(payload.UserEmb), meta.NumUsers)
	}
	if int64(len(payload.ItemEmb)) != meta.NumItems+1 {
		return mismatch("item table has %d rows, meta declares %d items", len(payload.ItemEmb), meta.NumItems)
	}
	for _, row := range payload.UserEmb {
		if len(row) != meta.EmbSize {
			return mismatch("user embedding width %d, meta declares %d", len(row), meta.EmbSize)
		}
	}
	for _, row := range payload.ItemEmb {
		if len(row) != meta.EmbSize {
			return mismatch("item embedding width %d, meta declares %d", len(row), meta.EmbSize)
		}
	}

	dims := append([]int{2 * meta.EmbSize}, meta.Hidden...)
	dims = append(dims, 1)
	if len(payload.MLPW) != len(dims)-1 || len(payload.MLPB) != len(dims)-1 {
		return mismatch("mlp has %d layers, meta declares %d", len(payload.MLPW), len(dims)-1)
	}
	for l := 0; l < len(dims)-1; l++ {
		if len(payload.MLPW[l]) != dims[l+1] || len(payload.MLPB[l]) != dims[l+1] {
			return mismatch("layer %d has %d units, meta declares %d", l, len(payload.MLPW[l]), dims[l+1])
		}
		for _, row := range payload.MLPW[l] {
			if len(row) != dims[l] {
				return mismatch("layer %d input width %d, meta declares %d", l, len(row), dims[l])
			}
		}
	}
	return nil
}
