package k8s

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

type PodFailedError struct {
	Namespace string
	Name      string
	Reason    string
}

func (e *PodFailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("pod %s/%s failed", e.Namespace, e.Name)
	}
	return fmt.Sprintf("pod %s/%s failed: %s", e.Namespace, e.Name, e.Reason)
}

type condition struct {
	Type    string
	Status  string
	Message string
}

func unstructuredConditions(obj map[string]interface{}) ([]condition, bool, error) {
	raw, found, err := unstructured.NestedSlice(obj, "status", "conditions")
	if err != nil || !found {
		return nil, found, err
	}
	conditions := make([]condition, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		cond := condition{}
		if v, ok := entry["type"].(string); ok {
			cond.Type = v
		}
		if v, ok := entry["status"].(string); ok {
			cond.Status = v
		}
		if v, ok := entry["message"].(string); ok {
			cond.Message = v
		}
		conditions = append(conditions, cond)
	}
	return conditions, true, nil
}
