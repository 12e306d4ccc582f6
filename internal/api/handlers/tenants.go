package handlers

import "pm-functions/internal/gateway"

var tenantEndpoints = []procEndpoint{
	{
		name:      "GetActiveTenancies",
		methods:   methodsGet,
		procedure: "pm.sp_GetActiveTenancies",
		query:     []queryParam{integer("propertyId", "PropertyId")},
	},
	{
		name:      "SearchTenants",
		methods:   methodsGet,
		procedure: "pm.sp_SearchTenants",
		query: []queryParam{
			str("firstName", "FirstName"),
			str("lastName", "LastName"),
			str("email", "Email"),
			str("phoneNumber", "PhoneNumber"),
		},
	},
	{
		name:      "CreateTenancy",
		methods:   methodsPost,
		procedure: "pm.sp_CreateTenancy",
		created:   true,
		required:  []string{"propertyId", "leaseStartDate"},
		missing:   "propertyId and leaseStartDate are required",
		body: []bodyParam{
			field("propertyId", "PropertyId"),
			field("leaseStartDate", "LeaseStartDate"),
			field("leaseEndDate", "LeaseEndDate"),
			defaulted("leaseStatus", "LeaseStatus", gateway.String("Active")),
			field("term", "Term"),
			field("securityDeposit", "SecurityDeposit"),
			field("securityDepositDate", "SecurityDepositDate"),
			field("petDeposit", "PetDeposit"),
			field("petDepositDate", "PetDepositDate"),
			field("lastRentIncrease", "LastRentIncrease"),
			field("insurancePolicyNumber", "InsurancePolicyNumber"),
			field("insuranceStartDate", "InsuranceStartDate"),
			field("insuranceEndDate", "InsuranceEndDate"),
		},
		output: "NewTenancyId",
	},
	{
		name:      "AddTenant",
		methods:   methodsPost,
		procedure: "pm.sp_AddTenant",
		created:   true,
		required:  []string{"tenancyId", "firstName", "lastName"},
		missing:   "tenancyId, firstName, and lastName are required",
		body: []bodyParam{
			field("tenancyId", "TenancyId"),
			field("firstName", "FirstName"),
			field("lastName", "LastName"),
			field("email", "Email"),
			field("mobile", "Mobile"),
		},
		output: "NewTenantId",
	},
	{
		name:      "UpdateTenant",
		methods:   methodsUpdate,
		procedure: "pm.sp_UpdateTenant",
		required:  []string{"tenantId"},
		missing:   "tenantId is required",
		body: []bodyParam{
			field("tenantId", "TenantId"),
			field("firstName", "FirstName"),
			field("lastName", "LastName"),
			field("email", "Email"),
			field("mobile", "Mobile"),
		},
	},
	{
		name:      "GetExpiringLeases",
		methods:   methodsGet,
		procedure: "pm.sp_GetExpiringLeases",
		query:     []queryParam{withDefault(integer("daysAhead", "DaysAhead"), gateway.Int(90))},
	},
}
