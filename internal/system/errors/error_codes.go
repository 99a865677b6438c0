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

package errors

const errorPrefix = "LDS-"

var (
	// Server error codes

	DB_CLIENT_INIT = ErrorMessage{
		Code:    errorPrefix + "15001",
		Message: "Unable to initialize database client.",
	}

	EXECUTE_QUERY = ErrorMessage{
		Code:    errorPrefix + "15002",
		Message: "Error while executing the database query.",
	}

	GET_TENANT_CONFIG = ErrorMessage{
		Code:    errorPrefix + "15003",
		Message: "Error while fetching duplicate configuration.",
	}

	UPDATE_TENANT_CONFIG = ErrorMessage{
		Code:    errorPrefix + "15004",
		Message: "Error while updating duplicate configuration.",
	}

	FIND_LEADS = ErrorMessage{
		Code:    errorPrefix + "15005",
		Message: "Error while fetching leads.",
	}

	UPSERT_LEAD = ErrorMessage{
		Code:    errorPrefix + "15006",
		Message: "Error while saving lead.",
	}

	DELETE_LEAD = ErrorMessage{
		Code:    errorPrefix + "15007",
		Message: "Error while deleting lead.",
	}

	REASSIGN_DEPENDENTS = ErrorMessage{
		Code:    errorPrefix + "15008",
		Message: "Error while reassigning dependent records.",
	}

	DEPENDENT_REASSIGNMENT_FAILED = ErrorMessage{
		Code:    errorPrefix + "15009",
		Message: "Dependent record reassignment failed. The merge can be retried.",
	}

	DELETION_FAILED = ErrorMessage{
		Code:    errorPrefix + "15010",
		Message: "Merged lead deletion failed after the primary lead was updated. Retrying the merge finishes the deletion.",
	}

	MERGE_UPDATE_FAILED = ErrorMessage{
		Code:    errorPrefix + "15011",
		Message: "Updating the primary lead during merge failed.",
	}

	LOCK_KEY_GEN = ErrorMessage{
		Code:    errorPrefix + "15012",
		Message: "Advisory lock key generation failed.",
	}

	LOCK_ACQUIRE = ErrorMessage{
		Code:    errorPrefix + "15013",
		Message: "Lock acquisition failed.",
	}

	LOCK_RELEASE = ErrorMessage{
		Code:    errorPrefix + "15014",
		Message: "Lock release failed.",
	}

	LOCK_RESULT_INVALID = ErrorMessage{
		Code:    errorPrefix + "15015",
		Message: "Lock query returned an invalid result.",
	}

	SCAN_FAILED = ErrorMessage{
		Code:    errorPrefix + "15016",
		Message: "Duplicate scan failed.",
	}

	SCAN_TIMEOUT = ErrorMessage{
		Code:    errorPrefix + "15017",
		Message: "Duplicate scan exceeded its time budget.",
	}

	CHECK_FAILED = ErrorMessage{
		Code:    errorPrefix + "15018",
		Message: "Duplicate check failed.",
	}

	MERGE_QUEUE_FULL = ErrorMessage{
		Code:    errorPrefix + "15019",
		Message: "Merge queue is full.",
	}

	// Client error codes

	POLICY_ALREADY_CONFIGURED = ErrorMessage{
		Code:    errorPrefix + "10001",
		Message: "Duplicate prevention policy is already configured.",
	}

	INVALID_PREVENTION_POLICY = ErrorMessage{
		Code:    errorPrefix + "10002",
		Message: "Invalid duplicate prevention policy.",
	}

	INVALID_RESOLUTION_POLICY = ErrorMessage{
		Code:    errorPrefix + "10003",
		Message: "Invalid conflict resolution policy.",
	}

	RECORD_NOT_FOUND = ErrorMessage{
		Code:    errorPrefix + "10004",
		Message: "Lead not found.",
	}

	SAME_RECORD_MERGE = ErrorMessage{
		Code:    errorPrefix + "10005",
		Message: "A lead cannot be merged with itself.",
	}

	INVALID_DUPLICATE_GROUP = ErrorMessage{
		Code:    errorPrefix + "10006",
		Message: "Invalid duplicate group.",
	}

	CONCURRENT_MODIFICATION = ErrorMessage{
		Code:    errorPrefix + "10007",
		Message: "Lead was modified concurrently.",
	}

	MERGE_IN_PROGRESS = ErrorMessage{
		Code:    errorPrefix + "10008",
		Message: "Another merge holds one of the leads.",
	}

	BAD_REQUEST = ErrorMessage{
		Code:    errorPrefix + "10009",
		Message: "Invalid request.",
	}

	INVALID_SCAN_SCOPE = ErrorMessage{
		Code:    errorPrefix + "10010",
		Message: "Invalid scan scope.",
	}

	MERGE_JOB_NOT_FOUND = ErrorMessage{
		Code:    errorPrefix + "10011",
		Message: "Bulk merge job not found.",
	}
)
