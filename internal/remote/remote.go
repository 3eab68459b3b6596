// Package remote содержит общий низкоуровневый код HTTP-клиентов к внешним
// сервисам: сборку JSON-запросов и классификацию сетевых ошибок.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Ошибки сетевого уровня. Транспортная ошибка и неуспешный статус различаются,
// потому что вызывающие стороны реагируют на них по-разному: например, рефрешер
// сбрасывает сессию только при отказе сервера, но не при его недоступности.
var (
	ErrUnreachable      = errors.New("remote is unreachable")
	ErrNonSuccessStatus = errors.New("remote returned non-success status")
)

// NewJSONRequest собирает запрос с JSON-телом. body == nil означает пустое тело.
func NewJSONRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// DoJSON выполняет запрос и декодирует JSON-ответ в out (out == nil — тело
// не читается). Любой статус вне 2xx превращается в ErrNonSuccessStatus.
func DoJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %s", ErrNonSuccessStatus, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return err
	}
	return nil
}
