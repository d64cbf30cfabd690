package rest

import (
	"bufio"
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/lookup"
)

// batch is one multipart/mixed $batch request holding a single changeset.
type batch struct {
	id       string
	boundary string
	body     *bytes.Buffer
}

func newBatch(s *Store, writes []stagedWrite) (*batch, error) {
	id := ulid.Make().String()

	var changes bytes.Buffer
	cs := multipart.NewWriter(&changes)
	if err := cs.SetBoundary("changeset_" + id); err != nil {
		return nil, errors.WrapResource("create", "batch", id, err)
	}

	for _, w := range writes {
		payload, err := lookup.Encode(map[string]any{w.field: w.value})
		if err != nil {
			return nil, err
		}

		part, err := cs.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {"application/http"},
			"Content-Transfer-Encoding": {"binary"},
		})
		if err != nil {
			return nil, errors.WrapResource("create", "batch", id, err)
		}
		fmt.Fprintf(part, "PATCH %s/items(%d) HTTP/1.1\r\n", s.listURL(w.list), w.id)
		fmt.Fprintf(part, "Content-Type: application/json\r\nIf-Match: *\r\n\r\n%s\r\n", payload)
	}
	if err := cs.Close(); err != nil {
		return nil, errors.WrapResource("create", "batch", id, err)
	}

	body := &bytes.Buffer{}
	bw := multipart.NewWriter(body)
	if err := bw.SetBoundary("batch_" + id); err != nil {
		return nil, errors.WrapResource("create", "batch", id, err)
	}
	part, err := bw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"multipart/mixed; boundary=" + cs.Boundary()},
	})
	if err != nil {
		return nil, errors.WrapResource("create", "batch", id, err)
	}
	if _, err := part.Write(changes.Bytes()); err != nil {
		return nil, errors.WrapResource("create", "batch", id, err)
	}
	if err := bw.Close(); err != nil {
		return nil, errors.WrapResource("create", "batch", id, err)
	}

	return &batch{id: id, boundary: bw.Boundary(), body: body}, nil
}

func (b *batch) contentType() string {
	return "multipart/mixed; boundary=" + b.boundary
}

// checkBatchResponse fails on the first embedded HTTP status that is not 2xx.
func checkBatchResponse(store string, body []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "HTTP/1.1 ") {
			continue
		}
		fields := strings.SplitN(strings.TrimPrefix(line, "HTTP/1.1 "), " ", 2)
		code, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		if code < 200 || code > 299 {
			msg := line
			if len(fields) > 1 {
				msg = fields[1]
			}
			return errors.NewAPIError(store, code, "batch operation failed: "+msg)
		}
	}
	return nil
}
