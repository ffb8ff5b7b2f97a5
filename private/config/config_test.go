// Copyright 2025 SCION Association
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scionproto/ecnudp/private/config"
)

type block struct {
	config.NoValidator
	Size int `toml:"size,omitempty"`
}

func (b *block) InitDefaults() {
	if b.Size == 0 {
		b.Size = 42
	}
}

func (b *block) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, "# The size. (default 42)\nsize = 42\n")
}

func (b *block) ConfigName() string {
	return "block"
}

type root struct {
	Block block `toml:"block"`
}

func TestWriteSampleDecodes(t *testing.T) {
	var sample bytes.Buffer
	config.WriteSample(&sample, nil, nil, &block{})
	assert.Contains(t, sample.String(), "[block]")
	assert.Contains(t, sample.String(), "    size = 42")

	var decoded root
	require.NoError(t, config.Decode(sample.Bytes(), &decoded))
	var defaults block
	defaults.InitDefaults()
	assert.Equal(t, defaults.Size, decoded.Block.Size)
}

func TestDecodeRejectsUnknown(t *testing.T) {
	var decoded root
	err := config.Decode([]byte("[block]\nsize = 1\nbogus = true\n"), &decoded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "block.bogus")
}

func TestDecodeMalformed(t *testing.T) {
	var decoded root
	err := config.Decode([]byte("[block]\nsize = = 1\n"), &decoded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line=2")
}

type failing struct {
	block
}

func (failing) Validate() error {
	return errors.New("broken")
}

func TestValidateAll(t *testing.T) {
	assert.NoError(t, config.ValidateAll(&block{}))
	err := config.ValidateAll(&block{}, &failing{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "section=block")
	assert.Contains(t, err.Error(), "broken")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cfg.toml")
	require.NoError(t, os.WriteFile(file, []byte("[block]\nsize = 7\n"), 0o644))

	var decoded root
	require.NoError(t, config.LoadFile(file, &decoded))
	assert.Equal(t, 7, decoded.Block.Size)

	assert.Error(t, config.LoadFile(filepath.Join(dir, "missing.toml"), &decoded))
}

func TestPathExtend(t *testing.T) {
	p := config.Path{"a"}
	q := p.Extend("b")
	assert.Equal(t, config.Path{"a"}, p)
	assert.Equal(t, config.Path{"a", "b"}, q)
}
