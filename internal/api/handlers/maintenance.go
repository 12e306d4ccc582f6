package handlers

import "pm-functions/internal/gateway"

var maintenanceEndpoints = []procEndpoint{
	{
		name:      "GetMaintenanceRequests",
		methods:   methodsGet,
		procedure: "pm.sp_GetMaintenanceRequests",
		query: []queryParam{
			integer("propertyId", "PropertyId"),
			str("status", "Status"),
			str("assignedTo", "AssignedTo"),
		},
	},
	{
		name:      "CreateMaintenance",
		methods:   methodsPost,
		procedure: "pm.sp_CreateMaintenance",
		created:   true,
		required:  []string{"propertyId", "description"},
		missing:   "propertyId and description are required",
		body: []bodyParam{
			field("propertyId", "PropertyId"),
			field("description", "Description"),
			field("actionPlan", "ActionPlan"),
			defaulted("status", "Status", gateway.String("Open")),
			field("assignedTo", "AssignedTo"),
			field("contractorId", "ContractorId"),
		},
		output: "NewMaintenanceId",
	},
	{
		name:      "UpdateMaintenance",
		methods:   methodsUpdate,
		procedure: "pm.sp_UpdateMaintenance",
		required:  []string{"maintenanceId"},
		missing:   "maintenanceId is required",
		body: []bodyParam{
			field("maintenanceId", "MaintenanceId"),
			field("description", "Description"),
			field("actionPlan", "ActionPlan"),
			field("status", "Status"),
			field("assignedTo", "AssignedTo"),
			field("contractorId", "ContractorId"),
		},
	},
	{
		name:      "GetInspections",
		methods:   methodsGet,
		procedure: "pm.sp_GetInspections",
		query: []queryParam{
			integer("propertyId", "PropertyId"),
			str("inspectionType", "InspectionType"),
			str("needInspection", "NeedInspection"),
		},
	},
	{
		name:      "CreateInspection",
		methods:   methodsPost,
		procedure: "pm.sp_CreateInspection",
		created:   true,
		required:  []string{"propertyId", "inspectionType"},
		missing:   "propertyId and inspectionType are required",
		body: []bodyParam{
			field("propertyId", "PropertyId"),
			field("inspectionType", "InspectionType"),
			field("lastInspectionDate", "LastInspectionDate"),
			field("needInspection", "NeedInspection"),
			field("inspectionNotes", "InspectionNotes"),
			field("repairsMaintenance", "RepairsMaintenance"),
			field("followUpDate", "FollowUpDate"),
		},
		output: "NewInspectionId",
	},
}
