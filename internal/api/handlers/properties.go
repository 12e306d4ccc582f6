package handlers

import "net/http"

var (
	methodsGet    = []string{http.MethodGet}
	methodsPost   = []string{http.MethodPost}
	methodsUpdate = []string{http.MethodPut, http.MethodPatch}
)

var propertyEndpoints = []procEndpoint{
	{
		name:      "GetProperties",
		methods:   []string{http.MethodGet, http.MethodPost},
		procedure: "pm.sp_GetAllProperties",
		query: []queryParam{
			str("city", "CityName"),
			str("province", "ProvinceName"),
			str("status", "Status"),
			str("unitType", "UnitType"),
		},
	},
	{
		name:      "GetPropertyById",
		methods:   methodsGet,
		procedure: "pm.sp_GetPropertyById",
		query:     []queryParam{mandatory(integer("propertyId", "PropertyId"))},
		missing:   "propertyId is required",
	},
	{
		name:      "CreateProperty",
		methods:   methodsPost,
		procedure: "pm.sp_CreateProperty",
		created:   true,
		required:  []string{"buildingNo", "unitNumber"},
		missing:   "buildingNo and unitNumber are required",
		body: []bodyParam{
			field("buildingNo", "BuildingNo"),
			field("unitNumber", "UnitNumber"),
			field("address", "Address"),
			field("postalCode", "PostalCode"),
			field("cityName", "CityName"),
			field("provinceName", "ProvinceName"),
			field("unitType", "UnitType"),
			field("managementStartDate", "ManagementStartDate"),
			field("lengthOfService", "LengthOfService"),
			field("status", "Status"),
			field("storageLocker", "StorageLocker"),
			field("parkingStall", "ParkingStall"),
			field("remarks", "Remarks"),
		},
		output: "NewPropertyId",
	},
	{
		name:      "UpdateProperty",
		methods:   methodsUpdate,
		procedure: "pm.sp_UpdateProperty",
		required:  []string{"propertyId"},
		missing:   "propertyId is required",
		body: []bodyParam{
			field("propertyId", "PropertyId"),
			field("address", "Address"),
			field("postalCode", "PostalCode"),
			field("cityName", "CityName"),
			field("provinceName", "ProvinceName"),
			field("unitType", "UnitType"),
			field("managementStartDate", "ManagementStartDate"),
			field("lengthOfService", "LengthOfService"),
			field("status", "Status"),
			field("storageLocker", "StorageLocker"),
			field("parkingStall", "ParkingStall"),
			field("remarks", "Remarks"),
		},
	},
}
