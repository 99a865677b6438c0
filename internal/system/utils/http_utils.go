/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/wso2/lead-deduplication-service/internal/system/constants"
	customerrors "github.com/wso2/lead-deduplication-service/internal/system/errors"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
)

// HandleError sends an HTTP error response based on the provided error
func HandleError(w http.ResponseWriter, err error) {
	var clientError *customerrors.ClientError
	w.Header().Set("Content-Type", "application/json")
	if ok := errors.As(err, &clientError); ok {
		w.WriteHeader(clientError.StatusCode)
		_ = json.NewEncoder(w).Encode(struct {
			Code        string `json:"code"`
			Message     string `json:"message"`
			Description string `json:"description"`
			TraceID     string `json:"trace_id,omitempty"`
		}{
			Code:        clientError.ErrorMessage.Code,
			Message:     clientError.ErrorMessage.Message,
			Description: clientError.ErrorMessage.Description,
			TraceID:     clientError.ErrorMessage.TraceID,
		})
		return
	}

	logger := log.GetLogger()
	var serverError *customerrors.ServerError
	if ok := errors.As(err, &serverError); ok {
		logger.Error(err.Error(), log.String("error_code", serverError.Code))
	} else {
		logger.Error("Unclassified error while serving request", log.Error(err))
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "Internal server error",
	})
}

// ExtractTenantIdFromPath returns the tenant that MountTenantDispatcher placed on the request context.
func ExtractTenantIdFromPath(r *http.Request) string {
	tenant, ok := r.Context().Value(constants.TenantContextKey).(string)
	if !ok || tenant == "" {
		return constants.DefaultTenant
	}
	return tenant
}

// WriteErrorResponse writes a client error with its own status code.
func WriteErrorResponse(w http.ResponseWriter, err *customerrors.ClientError) {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)

	_ = json.NewEncoder(w).Encode(err.ErrorMessage)
}

// WriteBadRequestErrorResponse writes a 400 BAD_REQUEST with the given description.
func WriteBadRequestErrorResponse(w http.ResponseWriter, description string) {

	WriteErrorResponse(w, customerrors.NewClientError(
		customerrors.BAD_REQUEST.WithDescription(description), http.StatusBadRequest))
}

// RespondJSON encodes payload with the given status code.
func RespondJSON(w http.ResponseWriter, statusCode int, payload interface{}, resourceName string) {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.GetLogger().Error(fmt.Sprintf("Failed to encode %s response", resourceName), log.Error(err))
	}
}

// DecodeJSONBody decodes the request body into target, rejecting unknown fields.
// On failure it writes a 400 response and returns false.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, target interface{}, resourceName string) bool {

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		WriteBadRequestErrorResponse(w, HandleDecodeError(err, resourceName))
		return false
	}
	return true
}

// RewriteToDefaultTenant redirects `/api/v1/...` to `/t/{defaultTenant}/api/v1/...`
func RewriteToDefaultTenant(apiBasePath string, mux *http.ServeMux, defaultTenant string) {
	mux.HandleFunc(apiBasePath+"/", func(w http.ResponseWriter, r *http.Request) {
		newPath := "/t/" + defaultTenant + r.URL.Path
		if r.URL.RawQuery != "" {
			newPath += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, newPath, http.StatusTemporaryRedirect)
	})
}

// MountTenantDispatcher serves /t/{tenant}{apiBasePath}/... by placing the tenant on the request
// context and handing the path relative to apiBasePath to handlerFunc.
func MountTenantDispatcher(mux *http.ServeMux, apiBasePath string, handlerFunc http.HandlerFunc) {
	mux.HandleFunc("/t/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimSuffix(r.URL.Path, "/")

		// Split: /t/{tenant}/api/v1/...
		parts := strings.SplitN(strings.TrimPrefix(path, "/t/"), "/", 2)
		if len(parts) != 2 || parts[0] == "" {
			http.Error(w, "Invalid tenant path format", http.StatusBadRequest)
			return
		}

		tenantID := parts[0]
		remainingPath := "/" + parts[1]
		if !strings.HasPrefix(remainingPath, apiBasePath) {
			http.Error(w, "Path must start with "+apiBasePath, http.StatusNotFound)
			return
		}

		ctx := context.WithValue(r.Context(), constants.TenantContextKey, tenantID)
		r = r.WithContext(ctx)
		r.URL.Path = strings.TrimPrefix(remainingPath, apiBasePath)

		handlerFunc(w, r)
	})
}

// QueryBool reads a boolean query parameter. Missing or unparsable values yield def.
func QueryBool(r *http.Request, name string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name))) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return def
}
