/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image/png"
	"io"
	"os"
	"time"

	"paintify/internal/storage"
)

// Gallery packs saved drawings, in the given order, into a CBZ (ZIP)
// archive with one PNG per page and a ComicInfo.xml manifest so comic
// readers can flip through a sketchbook.
func Gallery(w io.Writer, title string, drawings []storage.Drawing) error {
	zw := zip.NewWriter(w)
	pad := len(fmt.Sprint(len(drawings)))
	for i, d := range drawings {
		data, err := pageBytes(d.FilePath)
		if err != nil {
			return fmt.Errorf("drawing %d: %w", d.ID, err)
		}
		name := fmt.Sprintf("%0*d.png", pad, i+1)
		if err := addZipFile(zw, name, data, d.CreatedAt); err != nil {
			return fmt.Errorf("zip add image: %w", err)
		}
	}
	if err := addZipFile(zw, "ComicInfo.xml", buildComicInfoXML(title, drawings), time.Now()); err != nil {
		return fmt.Errorf("zip add manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}

// pageBytes returns PNG data for the file, re-encoding other formats.
func pageBytes(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		return data, nil
	}
	img, err := storage.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func addZipFile(zw *zip.Writer, name string, data []byte, mod time.Time) error {
	// PNG data is already compressed
	method := zip.Deflate
	if bytes.HasPrefix(data, []byte("\x89PNG")) {
		method = zip.Store
	}
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method, Modified: mod})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func buildComicInfoXML(title string, drawings []storage.Drawing) []byte {
	if title == "" {
		title = "Paintify sketchbook"
	}
	buf := &bytes.Buffer{}
	wf := func(format string, args ...any) { _, _ = fmt.Fprintf(buf, format, args...) }
	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<ComicInfo xmlns:xsi=\"http://www.w3.org/2001/XMLSchema-instance\">\n")
	wf("  <Title>%s</Title>\n", xmlEsc(title))
	wf("  <PageCount>%d</PageCount>\n", len(drawings))
	wf("  <Pages>\n")
	for i, d := range drawings {
		wf("    <Page Image=\"%d\" Bookmark=\"%s\" ImageWidth=\"%d\" ImageHeight=\"%d\"/>\n", i, xmlEsc(d.Name), d.WidthPx, d.HeightPx)
	}
	wf("  </Pages>\n")
	wf("</ComicInfo>\n")
	return buf.Bytes()
}

func xmlEsc(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		case '"':
			out = append(out, "&quot;"...)
		case '\'':
			out = append(out, "&apos;"...)
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
