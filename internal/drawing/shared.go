/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package drawing

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log/slog"

	applog "paintify/internal/log"
)

// ErrCloudOff is returned by cloud operations on a workspace opened
// without a client.
var ErrCloudOff = errors.New("drawing: cloud sync is off")

// ImportShared downloads the image behind imageURL, stores it in the
// library as "{millis}_{title}.png" and returns the file path and the
// decoded image, ready to be drawn over.
func (ws *Workspace) ImportShared(ctx context.Context, imageURL, title string) (string, image.Image, error) {
	if ws.Client == nil {
		return "", nil, ErrCloudOff
	}
	data, err := ws.Client.FetchURL(ctx, imageURL)
	if err != nil {
		return "", nil, err
	}
	if title == "" {
		title = "shared"
	}
	path, img, err := ws.Library.ImportReader(bytes.NewReader(data), title)
	if err != nil {
		return "", nil, err
	}
	applog.WithComponent("drawing").InfoContext(ctx, "shared image imported",
		slog.String("url", imageURL), slog.String("path", path))
	return path, img, nil
}
