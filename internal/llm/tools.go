// Tool declarations sent to the model. The schemas here describe the same
// closed function set that domain.ParseToolCall validates against.
package llm

// DefaultTools returns the full HR tool catalog.
func DefaultTools() []Tool {
	employeeID := map[string]any{
		"type":        "string",
		"description": `The employee's unique ID (e.g. "113654").`,
	}
	leaveType := map[string]any{
		"type":        "string",
		"enum":        []string{"Annual Leave", "Sick Leave", "Casual Leave"},
		"description": "Type of leave.",
	}

	return []Tool{
		{
			Name:        "get_employee_balance",
			Description: "Return the remaining annual, sick, and casual leave days for the given employee. Make sure the user has provided the required parameters. Run this only when the user asks about their leave balance.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"employee_id": employeeID,
				},
				"required":             []string{"employee_id"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "get_employee_info",
			Description: "Return an employee's directory entry (name, email, lead).",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"employee_id": employeeID,
				},
				"required":             []string{"employee_id"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "get_employee_logs",
			Description: "List an employee's leave requests and their statuses.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"employee_id": employeeID,
				},
				"required":             []string{"employee_id"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "update_leave_balance",
			Description: "Adjust an employee's leave balance by a number of days (positive adds, negative subtracts).",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"employee_id": employeeID,
					"leave_type":  leaveType,
					"days_change": map[string]any{
						"type":        "integer",
						"description": "Days to add (positive) or subtract (negative).",
					},
				},
				"required":             []string{"employee_id", "leave_type", "days_change"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "add_leave_log",
			Description: `Create a new leave-request entry (defaults to status "Pending"). Make sure the user has provided the required parameters.`,
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"employee_id": employeeID,
					"leave_type":  leaveType,
					"days": map[string]any{
						"type":        "integer",
						"description": "Total leave days requested.",
					},
					"start_date": map[string]any{
						"type":        "string",
						"description": "Start date of leave (YYYY-MM-DD).",
					},
					"end_date": map[string]any{
						"type":        "string",
						"description": "End date of leave (YYYY-MM-DD).",
					},
					"status": map[string]any{
						"type":        "string",
						"enum":        []string{"Pending", "Approved", "Rejected"},
						"description": "Initial status of the request (optional).",
					},
				},
				"required":             []string{"employee_id", "leave_type", "days", "start_date", "end_date"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "update_leave_log_status",
			Description: "Change the status of an existing leave request.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"request_id": map[string]any{
						"type":        "integer",
						"description": "The request id to update.",
					},
					"new_status": map[string]any{
						"type": "string",
						"enum": []string{"Pending", "Approved", "Rejected"},
					},
					"approved_by": map[string]any{
						"type":        "string",
						"description": "Who approved or rejected the request (optional).",
					},
				},
				"required":             []string{"request_id", "new_status"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "file_search",
			Description: "Search HR policy documents for relevant information. If the user asks about policy for anything, call this function and the results will be provided as context.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query_text": map[string]any{
						"type":        "string",
						"description": "The exact user message pasted without changes.",
					},
				},
				"required":             []string{"query_text"},
				"additionalProperties": false,
			},
		},
	}
}
