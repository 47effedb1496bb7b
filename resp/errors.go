// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resp

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/packetd/respio/respmetrics"
)

// errNeedMore is the internal signal a low-level reader returns when the
// buffer does not yet hold a complete token. It never escapes the package:
// ParseOne translates it into the caller-supplied not-enough-data sentinel.
var errNeedMore = errors.New("resp: need more data")

func newProtocolErrorf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

// poison builds the protocol error for msg via protocolErrorCtor, records it
// as the sticky error and returns it, matching protocol/predis/decoder.go's newError
// convention of attaching a stack trace the moment a wire violation is first
// observed.
func (p *Parser) poison(msg string) error {
	err := errors.WithStack(p.cfg.protocolErrorCtor(msg))
	p.stickyErr = err
	respmetrics.ProtocolErrors.Inc()
	return err
}
