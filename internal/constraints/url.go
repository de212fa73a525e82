package constraints

import "fmt"

// BaseURL hosts the constraints branches of the apache/airflow repository.
const BaseURL = "https://raw.githubusercontent.com/apache/airflow"

// URL returns the constraints file for an Airflow release and Python version.
func URL(airflowVersion, pythonVersion string) string {
	return fmt.Sprintf("%s/%s/constraints-%s.txt", BaseURL, RefName(airflowVersion), pythonVersion)
}

// RefName is the tag under which constraints for airflowVersion are published.
func RefName(airflowVersion string) string {
	return "constraints-" + airflowVersion
}
