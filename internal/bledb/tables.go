package bledb

// Subset of https://github.com/NordicSemiconductor/bluetooth-numbers-database (v1).

var services = map[string]string{
	"1800": "Generic Access",
	"1801": "Generic Attribute",
	"1802": "Immediate Alert",
	"1803": "Link Loss",
	"1804": "Tx Power",
	"1805": "Current Time Service",
	"1809": "Health Thermometer",
	"180a": "Device Information",
	"180d": "Heart Rate",
	"180f": "Battery Service",
	"1810": "Blood Pressure",
	"1812": "Human Interface Device",
	"1814": "Running Speed and Cadence",
	"1816": "Cycling Speed and Cadence",
	"1818": "Cycling Power",
	"1819": "Location and Navigation",
	"181a": "Environmental Sensing",
	"181c": "User Data",
	"181d": "Weight Scale",
	"1826": "Fitness Machine",
	"fe59": "Nordic Secure DFU",
	"6e400001b5a3f393e0a9e50e24dcca9e": "Nordic UART Service",
}

var characteristics = map[string]string{
	"2a00": "Device Name",
	"2a01": "Appearance",
	"2a04": "Peripheral Preferred Connection Parameters",
	"2a05": "Service Changed",
	"2a06": "Alert Level",
	"2a07": "Tx Power Level",
	"2a19": "Battery Level",
	"2a1c": "Temperature Measurement",
	"2a23": "System ID",
	"2a24": "Model Number String",
	"2a25": "Serial Number String",
	"2a26": "Firmware Revision String",
	"2a27": "Hardware Revision String",
	"2a28": "Software Revision String",
	"2a29": "Manufacturer Name String",
	"2a37": "Heart Rate Measurement",
	"2a38": "Body Sensor Location",
	"2a39": "Heart Rate Control Point",
	"2a4d": "Report",
	"2a53": "RSC Measurement",
	"2a5b": "CSC Measurement",
	"2a63": "Cycling Power Measurement",
	"2a6e": "Temperature",
	"2a6f": "Humidity",
	"2a9d": "Weight Measurement",
	"6e400002b5a3f393e0a9e50e24dcca9e": "Nordic UART RX",
	"6e400003b5a3f393e0a9e50e24dcca9e": "Nordic UART TX",
}

// See: https://www.bluetooth.com/specifications/assigned-numbers/
var vendors = map[uint16]string{
	0x0002: "Intel",
	0x0006: "Microsoft",
	0x000A: "Qualcomm",
	0x000D: "Texas Inst.",
	0x000F: "Broadcom",
	0x0047: "Plantronics",
	0x004C: "Apple",
	0x0056: "Sony Erics.",
	0x0059: "Nordic",
	0x0060: "Motorola",
	0x0075: "Samsung",
	0x0078: "Nike",
	0x0087: "Bose",
	0x00AA: "Realtek",
	0x00D2: "LG",
	0x00E0: "Google",
	0x00E3: "Harman",
	0x012D: "Sony",
	0x0131: "JBL",
	0x0154: "Belkin",
	0x0157: "Huawei",
	0x015D: "Espressif",
	0x0171: "Amazon",
	0x01DA: "Jabra",
	0x0246: "Logitech",
	0x0269: "Oura",
	0x02A9: "Anker",
	0x02FF: "Tile",
	0x0310: "Xiaomi",
	0x038F: "Garmin",
	0x0397: "TP-Link",
	0x03DA: "Fitbit",
	0x0473: "Withings",
	0x0499: "Ruuvi",
	0x0958: "IKEA",
	0x0988: "Sonos",
}
