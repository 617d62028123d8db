/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package cloud

import (
	"errors"
	"testing"
	"time"
)

func TestTokenSignVerify(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tok, err := signToken("s3cret", Identity{UserID: "alice", Email: "a@example.com"}, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	id, err := verifyToken("s3cret", tok, now)
	if err != nil || id.UserID != "alice" || id.Email != "a@example.com" {
		t.Fatalf("verify = %+v, %v", id, err)
	}
	if _, err := verifyToken("other", tok, now); !errors.Is(err, errTokenSig) {
		t.Fatalf("wrong secret err = %v", err)
	}
	if _, err := verifyToken("s3cret", tok, now.Add(2*time.Hour)); !errors.Is(err, errTokenExpired) {
		t.Fatalf("expired err = %v", err)
	}
	if _, err := verifyToken("s3cret", "no-dot", now); !errors.Is(err, errTokenFormat) {
		t.Fatalf("format err = %v", err)
	}
	// flip one payload character
	b := []byte(tok)
	if b[0] == 'A' {
		b[0] = 'B'
	} else {
		b[0] = 'A'
	}
	if _, err := verifyToken("s3cret", string(b), now); err == nil {
		t.Fatalf("tampered token accepted")
	}
}
