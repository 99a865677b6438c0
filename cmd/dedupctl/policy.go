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

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wso2/lead-deduplication-service/internal/duplicate_config/model"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Show or change the tenant's duplicate policies",
}

var policyGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the prevention and resolution policies",
	Args:  cobra.NoArgs,
	RunE:  runPolicyGet,
}

var policySetCmd = &cobra.Command{
	Use:   "set prevention <none|email|phone|both> | set resolution <field>=<strategy>...",
	Short: "Configure the prevention policy or update resolution strategies",
	Long: `The prevention policy can be configured once per tenant. Resolution strategies can be
changed at any time; fields not named keep their current strategy.

Examples:
  dedupctl policy set prevention email -t acme
  dedupctl policy set resolution status=keep_newest notes=keep_primary -t acme`,
	Args: cobra.MinimumNArgs(2),
	RunE: runPolicySet,
}

func init() {
	policyCmd.AddCommand(policyGetCmd)
	policyCmd.AddCommand(policySetCmd)
	rootCmd.AddCommand(policyCmd)
}

func runPolicyGet(cmd *cobra.Command, _ []string) error {
	tenantConfig, err := engine.ConfigService.GetTenantConfig(cmd.Context(), tenantId)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, tenantConfig)
	}
	cmd.Printf("prevention: %s\n", tenantConfig.PreventionPolicy)
	if tenantConfig.PolicyConfiguredAt != nil {
		cmd.Printf("configured at: %s\n", tenantConfig.PolicyConfiguredAt.Format("2006-01-02 15:04:05"))
	}
	r := tenantConfig.ResolutionPolicy
	cmd.Printf("resolution: programs=%s documents=%s status=%s priority=%s leadScore=%s tags=%s notes=%s\n",
		r.Programs, r.Documents, r.Status, r.Priority, r.LeadScore, r.Tags, r.Notes)
	return nil
}

func runPolicySet(cmd *cobra.Command, args []string) error {
	switch args[0] {
	case "prevention":
		if len(args) != 2 {
			return fmt.Errorf("expected exactly one prevention policy")
		}
		tenantConfig, err := engine.ConfigService.SetPreventionPolicy(cmd.Context(), tenantId,
			model.PreventionPolicy(args[1]))
		if err != nil {
			return err
		}
		cmd.Printf("prevention policy set to %s\n", tenantConfig.PreventionPolicy)
		return nil

	case "resolution":
		current, err := engine.ConfigService.GetResolutionPolicy(cmd.Context(), tenantId)
		if err != nil {
			return err
		}
		updated, err := applyAssignments(current, args[1:])
		if err != nil {
			return err
		}
		saved, err := engine.ConfigService.SetResolutionPolicy(cmd.Context(), tenantId, updated)
		if err != nil {
			return err
		}
		return printJSON(cmd, saved)
	}
	return fmt.Errorf("unknown policy %q: use prevention or resolution", args[0])
}

// applyAssignments sets field=strategy pairs on a copy of policy.
func applyAssignments(policy model.ConflictResolutionPolicy, assignments []string) (model.ConflictResolutionPolicy, error) {
	fields := map[string]*string{
		"programs":  &policy.Programs,
		"documents": &policy.Documents,
		"status":    &policy.Status,
		"priority":  &policy.Priority,
		"leadScore": &policy.LeadScore,
		"tags":      &policy.Tags,
		"notes":     &policy.Notes,
	}
	for _, a := range assignments {
		field, strategy, ok := strings.Cut(a, "=")
		if !ok {
			return policy, fmt.Errorf("expected field=strategy, got %q", a)
		}
		target, known := fields[strings.TrimSpace(field)]
		if !known {
			return policy, fmt.Errorf("unknown resolution field %q", field)
		}
		*target = strings.TrimSpace(strategy)
	}
	return policy, nil
}
