package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteReading mirrors a device reading to InfluxDB.
//
// The write is non-blocking; points are batched and sent asynchronously.
// Tags stay low-cardinality: the external device ID and its type.
//
// Example:
//
//	client.WriteReading("temp-01", "temperature_sensor", 21.5, "C", time.Now())
func (c *Client) WriteReading(externalID, deviceType string, value float64, unit string, recordedAt time.Time) {
	if !c.IsConnected() {
		return
	}

	tags := map[string]string{
		"device_id":   externalID,
		"device_type": deviceType,
	}
	if unit != "" {
		tags["unit"] = unit
	}

	point := write.NewPoint(
		"device_readings",
		tags,
		map[string]interface{}{
			"value": value,
		},
		recordedAt,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "hearth-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
