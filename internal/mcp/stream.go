package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"go.lsp.dev/jsonrpc2"
)

// maxLineSize bounds a single framed message.
const maxLineSize = 16 << 20

// lineStream frames JSON-RPC messages as newline-delimited JSON, the stdio
// framing MCP clients use. jsonrpc2.NewStream speaks Content-Length headers,
// which MCP does not.
type lineStream struct {
	in  *bufio.Reader
	rwc io.ReadWriteCloser

	writeMu sync.Mutex

	// onDecodeError is called for lines that are not valid JSON-RPC. The
	// line is answered with an id-less error reply and reading continues.
	onDecodeError func(line []byte, err error)
}

// errorReply is a JSON-RPC error response to a message whose id could not
// be read. ID is always null.
type errorReply struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Error   *jsonrpc2.Error `json:"error"`
}

// NewLineStream returns a jsonrpc2.Stream over newline-delimited JSON.
// onDecodeError may be nil.
func NewLineStream(rwc io.ReadWriteCloser, onDecodeError func(line []byte, err error)) jsonrpc2.Stream {
	if onDecodeError == nil {
		onDecodeError = func([]byte, error) {}
	}
	return &lineStream{
		in:            bufio.NewReaderSize(rwc, 64<<10),
		rwc:           rwc,
		onDecodeError: onDecodeError,
	}
}

// Read implements jsonrpc2.Stream.
func (s *lineStream) Read(ctx context.Context) (jsonrpc2.Message, int64, error) {
	var total int64
	for {
		select {
		case <-ctx.Done():
			return nil, total, ctx.Err()
		default:
		}

		line, err := s.readLine()
		total += int64(len(line))
		if err != nil {
			// A final unterminated line is still a message.
			if err == io.EOF && len(bytes.TrimSpace(line)) > 0 {
				msg, decErr := jsonrpc2.DecodeMessage(bytes.TrimSpace(line))
				if decErr == nil {
					return msg, total, nil
				}
				s.rejectLine(line, decErr)
			}
			return nil, total, err
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		msg, err := jsonrpc2.DecodeMessage(line)
		if err != nil {
			s.rejectLine(line, err)
			continue
		}
		return msg, total, nil
	}
}

// rejectLine reports an undecodable line and answers it with a parse error
// (-32700) for malformed JSON or an invalid request (-32600) for JSON that
// is not a JSON-RPC message.
func (s *lineStream) rejectLine(line []byte, err error) {
	s.onDecodeError(line, err)

	code := jsonrpc2.ErrParse.Code
	message := "parse error"
	if json.Valid(bytes.TrimSpace(line)) {
		code = jsonrpc2.ErrInvalidRequest.Code
		message = "invalid request"
	}
	reply := errorReply{
		JSONRPC: "2.0",
		ID:      json.RawMessage("null"),
		Error:   &jsonrpc2.Error{Code: code, Message: fmt.Sprintf("%s: %v", message, err)},
	}
	data, mErr := json.Marshal(reply)
	if mErr != nil {
		return
	}
	// A failed reply surfaces on the next read or write.
	_, _ = s.writeFrame(data)
}

func (s *lineStream) readLine() ([]byte, error) {
	var buf []byte
	for {
		chunk, err := s.in.ReadSlice('\n')
		buf = append(buf, chunk...)
		if len(buf) > maxLineSize {
			return nil, fmt.Errorf("read message: line exceeds %d bytes", maxLineSize)
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return buf, err
	}
}

// Write implements jsonrpc2.Stream.
func (s *lineStream) Write(ctx context.Context, msg jsonrpc2.Message) (int64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("marshaling message: %w", err)
	}
	n, err := s.writeFrame(data)
	return int64(n), err
}

// writeFrame writes data and a newline as one frame.
func (s *lineStream) writeFrame(data []byte) (int, error) {
	frame := make([]byte, 0, len(data)+1)
	frame = append(frame, data...)
	frame = append(frame, '\n')

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.rwc.Write(frame)
}

// Close implements jsonrpc2.Stream.
func (s *lineStream) Close() error {
	return s.rwc.Close()
}
