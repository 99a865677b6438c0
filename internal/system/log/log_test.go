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

package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_TextByDefault(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Configure(Options{Level: "INFO", Output: &buf}))

	GetLogger().ForTenant("acme", String("group_id", "exact_email:a@b.com")).Info("merged group")

	out := buf.String()
	assert.Contains(t, out, "msg=\"merged group\"")
	assert.Contains(t, out, "tenant_id=acme")
	assert.Contains(t, out, "group_id=exact_email:a@b.com")
}

func TestConfigure_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Configure(Options{Level: "debug", Format: "JSON", Output: &buf}))

	GetLogger().Debug("scan pass finished", Int("groups", 3))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "scan pass finished", record["msg"])
	assert.Equal(t, float64(3), record["groups"])
}

func TestConfigure_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Configure(Options{Level: "WARN", Output: &buf}))

	GetLogger().Info("hidden")
	GetLogger().Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestConfigure_Rejects(t *testing.T) {
	assert.Error(t, Configure(Options{Level: "LOUD"}))
	assert.Error(t, Configure(Options{Level: "INFO", Format: "xml"}))
}

func TestAudit_WritesEventJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWithWriter("INFO", &buf))

	GetLogger().Audit(AuditEvent{
		TenantID:      "acme",
		InitiatorType: InitiatorTypeSystem,
		TargetID:      "lead-1",
		TargetType:    "lead",
		ActionID:      ActionMergeGroup,
	})

	out := buf.String()
	assert.True(t, strings.Contains(out, "msg=AUDIT"))
	assert.Contains(t, out, ActionMergeGroup)
	assert.Contains(t, out, "recordedAt")
	assert.Contains(t, out, "acme")
}
