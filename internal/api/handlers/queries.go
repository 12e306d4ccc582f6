package handlers

import (
	"time"

	"pm-functions/internal/gateway"
)

var viewEndpoints = []viewEndpoint{
	{name: "GetPropertyDashboard", view: "pm.vw_PropertyDashboard", orderBy: "building_no, unit_number"},
	{name: "GetUpcomingEvents", view: "pm.vw_UpcomingEvents", orderBy: "event_date ASC"},
	{name: "GetOpenIssues", view: "pm.vw_OpenIssues", filter: "propertyId", orderBy: "issue_type, issue_id DESC"},
	{name: "GetFinancialOverview", view: "pm.vw_FinancialOverview", filter: "propertyId", orderBy: "building_no, unit_number"},
}

var rentEndpoints = []procEndpoint{
	{
		name:      "GetRentHistory",
		methods:   methodsGet,
		procedure: "pm.sp_GetRentHistory",
		query:     []queryParam{mandatory(integer("propertyId", "PropertyId"))},
		missing:   "propertyId is required",
	},
	{
		name:      "AddRent",
		methods:   methodsPost,
		procedure: "pm.sp_AddRent",
		created:   true,
		required:  []string{"propertyId", "rentAmount", "effectiveDate"},
		missing:   "propertyId, rentAmount, and effectiveDate are required",
		body: []bodyParam{
			field("propertyId", "PropertyId"),
			{key: "rentYear", name: "RentYear", def: currentYear},
			field("rentAmount", "RentAmount"),
			field("effectiveDate", "EffectiveDate"),
			field("endDate", "EndDate"),
			field("notes", "Notes"),
		},
		output: "NewRentId",
	},
	{
		name:      "UpdateTaxes",
		methods:   methodsUpdate,
		procedure: "pm.sp_UpdateTaxes",
		required:  []string{"propertyId"},
		missing:   "propertyId is required",
		body: []bodyParam{
			field("propertyId", "PropertyId"),
			field("municipalEHT", "MunicipalEHT"),
			field("bcSpeculationTax", "BCSpeculationTax"),
			field("federalUHT", "FederalUHT"),
		},
	},
}

func currentYear(now time.Time) gateway.Value {
	return gateway.Int(int64(now.Year()))
}
