// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	_ "embed"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

//go:embed fsconfig_default.json
var defaultTemplate []byte

// ErrConfigExists is returned when a default document would overwrite one
var ErrConfigExists = errors.New("config file already exists")

// DefaultDocument returns the parsed default template
func DefaultDocument(ctx context.Context) (*Document, error) {
	doc, err := (&JSONParser{}).Parse(ctx, defaultTemplate)
	if err != nil {
		return nil, errors.Errorf("parsing default template: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, errors.Errorf("validating default template: %w", err)
	}
	return doc, nil
}

// 🏗️ CreateDefault writes the default template to dir/name and returns the
// path written. An empty name means DefaultName. Names other than .json are
// rendered in their own format. An existing file is never overwritten.
func CreateDefault(ctx context.Context, dir, name string) (string, error) {
	if name == "" {
		name = DefaultName
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Errorf("resolving directory: %w", err)
	}
	path := filepath.Join(abs, name)

	data, err := renderDefault(ctx, name)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return path, errors.Errorf("%s: %w", path, ErrConfigExists)
		}
		return "", errors.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", errors.Errorf("writing config file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", errors.Errorf("closing config file: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("created default config")
	return path, nil
}

func renderDefault(ctx context.Context, name string) ([]byte, error) {
	p := GetParser(name)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", name)
	}
	if _, ok := p.(*JSONParser); ok {
		return defaultTemplate, nil
	}
	enc, ok := p.(Encoder)
	if !ok {
		return nil, errors.Errorf("cannot render default config as %s", filepath.Ext(name))
	}
	doc, err := DefaultDocument(ctx)
	if err != nil {
		return nil, err
	}
	return enc.Encode(doc)
}
